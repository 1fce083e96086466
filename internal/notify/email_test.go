package notify

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignInvitesRoundRobin(t *testing.T) {
	invites, err := AssignInvites(
		[]string{"en1", "en2"},
		[]string{"rs1", "rs2", "rs3"},
		[]string{"a@x.com", "b@x.com", "c@x.com"},
	)
	require.NoError(t, err)
	require.Len(t, invites, 3)

	assert.Equal(t, Invite{Recipient: "a@x.com", ENURL: "en1", RSURL: "rs1"}, invites[0])
	assert.Equal(t, Invite{Recipient: "b@x.com", ENURL: "en2", RSURL: "rs2"}, invites[1])
	assert.Equal(t, Invite{Recipient: "c@x.com", ENURL: "en1", RSURL: "rs3"}, invites[2])
}

func TestAssignInvitesRequiresURLs(t *testing.T) {
	_, err := AssignInvites(nil, []string{"rs"}, []string{"a@x.com"})
	require.ErrorIs(t, err, ErrNotify)

	_, err = AssignInvites([]string{"en"}, []string{"rs"}, nil)
	require.ErrorIs(t, err, ErrNotify)
}

func TestBuildMessageIsBilingual(t *testing.T) {
	service := NewService(Config{
		Host:      "smtp.example.com",
		Port:      587,
		FromEmail: "tests@example.com",
		TestName:  "AI Citizen",
	}, zerolog.New(io.Discard))

	msg, err := service.buildMessage(Invite{
		Recipient: "student@example.com",
		ENURL:     "https://script.google.com/macros/s/en/exec",
		RSURL:     "https://script.google.com/macros/s/rs/exec",
	})
	require.NoError(t, err)

	body := string(msg)
	assert.Contains(t, body, "To: student@example.com")
	assert.Contains(t, body, "Subject: AI Citizen | ")
	assert.Contains(t, body, "https://script.google.com/macros/s/en/exec")
	assert.Contains(t, body, "https://script.google.com/macros/s/rs/exec")
	assert.Contains(t, body, "Poštovani")
	assert.Contains(t, body, "Hello")
}

func TestSendInvitesRequiresSMTPConfig(t *testing.T) {
	service := NewService(Config{}, zerolog.New(io.Discard))
	err := service.SendInvites(context.Background(), []Invite{{Recipient: "a@x.com"}})
	require.ErrorIs(t, err, ErrNotify)
}

func TestReadLinesSkipsBlanksAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipients.txt")
	require.NoError(t, os.WriteFile(path, []byte("a@x.com\n\n# comment\nb@x.com\n"), 0o644))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, lines)
}

func TestReadLinesMissingFile(t *testing.T) {
	_, err := ReadLines(filepath.Join(t.TempDir(), "gone.txt"))
	require.ErrorIs(t, err, ErrNotify)
}
