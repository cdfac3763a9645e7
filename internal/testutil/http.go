package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"
)

// TestServer is an httptest server with a client that keeps cookies and
// does not follow redirects
type TestServer struct {
	*httptest.Server
	Client *http.Client
	t      *testing.T
}

func NewTestServer(t *testing.T, handler http.Handler) *TestServer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.NoError(t, err)

	return &TestServer{
		Server: server,
		Client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		t: t,
	}
}

func (ts *TestServer) do(req *http.Request) *http.Response {
	resp, err := ts.Client.Do(req)
	require.NoError(ts.t, err)
	ts.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *TestServer) GET(path string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(ts.t, err)
	return ts.do(req)
}

// HXGET sends a GET request the way htmx does
func (ts *TestServer) HXGET(path string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(ts.t, err)
	req.Header.Set("HX-Request", "true")
	return ts.do(req)
}

// POSTForm submits url-encoded form values
func (ts *TestServer) POSTForm(path string, values url.Values) *http.Response {
	return ts.postForm(path, values, false)
}

// HXPOST submits form values the way htmx does
func (ts *TestServer) HXPOST(path string, values url.Values) *http.Response {
	return ts.postForm(path, values, true)
}

func (ts *TestServer) postForm(path string, values url.Values, htmx bool) *http.Response {
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, strings.NewReader(values.Encode()))
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return ts.do(req)
}

// Do sends an arbitrary request with the server's client
func (ts *TestServer) Do(req *http.Request) *http.Response {
	return ts.do(req)
}

// HXTrigger decodes the HX-Trigger header of resp
func HXTrigger(t *testing.T, resp *http.Response) map[string]json.RawMessage {
	t.Helper()
	header := resp.Header.Get("HX-Trigger")
	if header == "" {
		return nil
	}
	var events map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(header), &events))
	return events
}

// HXMessages returns the texts of the messages attached to HX-Trigger
func HXMessages(t *testing.T, resp *http.Response) []string {
	t.Helper()
	raw, ok := HXTrigger(t, resp)["messages"]
	if !ok {
		return nil
	}
	var messages []struct {
		Message string `json:"message"`
		Tags    string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(raw, &messages))
	texts := make([]string, len(messages))
	for i, m := range messages {
		texts[i] = m.Message
	}
	return texts
}

func AssertJSONResponse(t *testing.T, resp *http.Response, expectedStatus int, target interface{}) {
	t.Helper()
	require.Equal(t, expectedStatus, resp.StatusCode)

	if target != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}
}
