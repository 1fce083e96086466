package notify

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"os"
	"strings"
	"text/template"

	"github.com/rs/zerolog"
)

// ErrNotify reports a notification that could not be prepared or sent.
var ErrNotify = errors.New("notification failed")

// Config holds SMTP configuration.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	TestName  string
}

// Service sends bilingual test invitations via SMTP. Each recipient gets one
// English and one Serbian test URL in a single message.
type Service struct {
	cfg    Config
	logger zerolog.Logger
}

func NewService(cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger.With().Str("component", "notifier").Logger(),
	}
}

// Invite pairs the two language URLs assigned to one recipient.
type Invite struct {
	Recipient string
	ENURL     string
	RSURL     string
}

// AssignInvites distributes URL lists across recipients round-robin, so each
// person lands on a different variant when enough variants exist.
func AssignInvites(enURLs, rsURLs, recipients []string) ([]Invite, error) {
	if len(enURLs) == 0 || len(rsURLs) == 0 {
		return nil, fmt.Errorf("%w: need at least one URL per language", ErrNotify)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: no recipients", ErrNotify)
	}
	invites := make([]Invite, 0, len(recipients))
	for i, r := range recipients {
		invites = append(invites, Invite{
			Recipient: r,
			ENURL:     enURLs[i%len(enURLs)],
			RSURL:     rsURLs[i%len(rsURLs)],
		})
	}
	return invites, nil
}

// SendInvites delivers one email per invite. The first delivery failure
// aborts the run; already-sent messages are not retracted.
func (s *Service) SendInvites(ctx context.Context, invites []Invite) error {
	if s.cfg.Host == "" || s.cfg.Port == 0 {
		return fmt.Errorf("%w: smtp not configured", ErrNotify)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	for _, invite := range invites {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: canceled: %v", ErrNotify, err)
		}
		body, err := s.buildMessage(invite)
		if err != nil {
			return err
		}
		if err := smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{invite.Recipient}, body); err != nil {
			s.logger.Error().Err(err).Str("to", invite.Recipient).Msg("failed to send invite")
			return fmt.Errorf("%w: send to %s: %v", ErrNotify, invite.Recipient, err)
		}
		s.logger.Info().Str("to", invite.Recipient).Msg("invite sent")
	}
	return nil
}

func (s *Service) buildMessage(invite Invite) ([]byte, error) {
	var body bytes.Buffer
	if err := inviteTemplate.Execute(&body, map[string]string{
		"TestName": s.cfg.TestName,
		"ENURL":    invite.ENURL,
		"RSURL":    invite.RSURL,
	}); err != nil {
		return nil, fmt.Errorf("%w: execute template: %v", ErrNotify, err)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\n%s\r\n", s.cfg.FromEmail, invite.Recipient, body.String())
	return []byte(msg), nil
}

var inviteTemplate = template.Must(template.New("invite").Parse(`Subject: {{if .TestName}}{{.TestName}} | {{end}}Vaš test / Your test
MIME-Version: 1.0
Content-Type: text/plain; charset=UTF-8

Poštovani,

Pred Vama je test. Molimo Vas da izaberete jezik i popunite test samo jednom:

  Srpski:  {{.RSURL}}

Hello,

Your test is ready. Please pick a language and take the test only once:

  English: {{.ENURL}}

Srećno! / Good luck!`))

// ReadLines loads a URL or recipient list, one entry per line. Blank lines
// and #-comments are skipped.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrNotify, path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrNotify, path, err)
	}
	return lines, nil
}
