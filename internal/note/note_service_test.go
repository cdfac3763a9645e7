package note_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/internal/domain"
	"tripplanner/internal/note"
	"tripplanner/internal/testutil"
)

func TestNoteLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	bob := env.CreateUser(t, "Bob", "Builder", "bob@example.com", true)
	eve := env.CreateUser(t, "Eve", "Outsider", "eve@example.com", true)
	lisbon := env.CreateTrip(t, ada, "Lisbon")
	env.AddMember(t, lisbon, bob)

	created, err := env.Notes.Create(ctx, lisbon, ada, "Packing", "- towel")
	require.NoError(t, err)

	found, err := env.Notes.FindForMember(ctx, created.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Packing", found.Title)

	_, err = env.Notes.FindForMember(ctx, created.ID, eve.ID)
	assert.True(t, domain.IsNotFound(err))
	_, err = env.Notes.FindForMember(ctx, "missing", ada.ID)
	assert.True(t, domain.IsNotFound(err))

	require.NoError(t, env.Notes.Update(ctx, found, bob, "Packing list", "- towel\n- hat"))
	notes, err := env.Notes.ListForTrip(ctx, lisbon.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Packing list", notes[0].Title)

	require.NoError(t, env.Notes.Delete(ctx, notes[0], bob))
	notes, err = env.Notes.ListForTrip(ctx, lisbon.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)

	logs, err := env.EventLogs.GetLatestByTrip(ctx, lisbon.ID, 0)
	require.NoError(t, err)
	var descriptions []string
	for _, l := range logs {
		descriptions = append(descriptions, l.Description)
	}
	assert.Contains(t, descriptions, "Ada Lovelace added the note [Packing]")
	assert.Contains(t, descriptions, "Bob Builder edited the note [Packing list]")
	assert.Contains(t, descriptions, "Bob Builder deleted the note [Packing list]")
}

func TestRenderMarkdown(t *testing.T) {
	html := string(note.RenderMarkdown("# Day 1\n**Belém** tower\n<script>alert(1)</script>"))
	assert.Contains(t, html, "<h1>Day 1</h1>")
	assert.Contains(t, html, "<strong>Belém</strong>")
	assert.NotContains(t, html, "<script>")
}
