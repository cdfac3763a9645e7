package mail

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"text/template"
	"time"

	gomail "github.com/wneessen/go-mail"

	"tripplanner/internal/config"
)

// Message is a plain text email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer returns an SMTP mailer, or a LogMailer when no SMTP host is configured
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		log.Println("SMTP_HOST not set, mails will be written to the log")
		return &LogMailer{}
	}
	return &SMTPMailer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
	}
}

type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

const smtpTimeout = 15 * time.Second

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm, err := m.newMsg(msg)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(m.Port),
		gomail.WithTimeout(smtpTimeout),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if m.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.Username),
			gomail.WithPassword(m.Password))
	}
	client, err := gomail.NewClient(m.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, gm); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	return nil
}

// newMsg builds the MIME message. Addresses are parsed and header values
// encoded, so a subject or recipient cannot add headers of its own.
func (m *SMTPMailer) newMsg(msg Message) (*gomail.Msg, error) {
	gm := gomail.NewMsg()
	if err := gm.From(m.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.From, err)
	}
	if err := gm.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	gm.Subject(msg.Subject)
	gm.SetDate()
	gm.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return gm, nil
}

// LogMailer writes messages to the log instead of sending them
type LogMailer struct{}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	log.Printf("Mail to %s: %s\n%s", msg.To, msg.Subject, msg.Body)
	return nil
}

// RecordingMailer keeps every message in memory
type RecordingMailer struct {
	mu       sync.Mutex
	messages []Message
}

func (m *RecordingMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns a copy of the messages sent so far
func (m *RecordingMailer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

// Last returns the most recent message sent to "to"
func (m *RecordingMailer) Last(to string) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].To == to {
			return m.messages[i], true
		}
	}
	return Message{}, false
}

var bodies = template.Must(template.New("mail").Parse(`
{{define "activation"}}Hi {{.Name}},

please confirm your email address to activate your Trip Planner account:

{{.Link}}

The link expires in {{.Hours}} hours.
{{end}}
{{define "reset"}}Hi {{.Name}},

you're receiving this email because you requested a password reset for your
Trip Planner account. Please go to the following page and choose a new password:

{{.Link}}

If you didn't ask for this, you can ignore this email.
{{end}}
{{define "invite"}}Hello,

{{.Inviter}} invited you to join the trip "{{.Trip}}" on Trip Planner.
Create an account with this email address to see it:

{{.Link}}
{{end}}
{{define "member_added"}}Hi {{.Name}},

{{.Inviter}} added you to the trip "{{.Trip}}":

{{.Link}}
{{end}}`))

// Render executes one of the mail body templates
func Render(name string, data any) (string, error) {
	var b bytes.Buffer
	if err := bodies.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s mail: %w", name, err)
	}
	return b.String(), nil
}

// ActivationMessage asks a new user to confirm their email address
func ActivationMessage(to, name, link string, ttl time.Duration) (Message, error) {
	body, err := Render("activation", map[string]any{"Name": name, "Link": link, "Hours": int(ttl.Hours())})
	return Message{To: to, Subject: "Activate your account", Body: body}, err
}

// PasswordResetMessage carries a password reset link
func PasswordResetMessage(to, name, link string) (Message, error) {
	body, err := Render("reset", map[string]any{"Name": name, "Link": link})
	return Message{To: to, Subject: "Password reset", Body: body}, err
}

// InviteMessage invites someone without an account to sign up and join a trip
func InviteMessage(to, inviter, trip, link string) (Message, error) {
	body, err := Render("invite", map[string]any{"Inviter": inviter, "Trip": trip, "Link": link})
	return Message{To: to, Subject: fmt.Sprintf("%s invited you to %s", inviter, trip), Body: body}, err
}

// MemberAddedMessage tells an existing user they were added to a trip
func MemberAddedMessage(to, name, inviter, trip, link string) (Message, error) {
	body, err := Render("member_added", map[string]any{"Name": name, "Inviter": inviter, "Trip": trip, "Link": link})
	return Message{To: to, Subject: fmt.Sprintf("You were added to %s", trip), Body: body}, err
}
