package mail

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationLink(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{
			name:  "plain token",
			token: "abc123",
			want:  "http://localhost:3000/api/auth/verify/abc123",
		},
		{
			name:  "url-safe base64 token",
			token: "x_y-z",
			want:  "http://localhost:3000/api/auth/verify/x_y-z",
		},
		{
			name:  "token needing escaping",
			token: "a/b c",
			want:  "http://localhost:3000/api/auth/verify/a%2Fb%20c",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			got := VerificationLink("http://localhost:3000", "/api/auth", test.token)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestSubjectAndBody(t *testing.T) {
	assert.NotEqual(t, subject(false), subject(true), "repeat mails should be distinguishable")
	assert.Contains(t, subject(true), "resent")

	link := "http://localhost:3000/api/auth/verify/tok"
	assert.Contains(t, body(link, false), link)
	assert.Contains(t, body(link, true), link)
	assert.NotEqual(t, body(link, false), body(link, true))
}

func TestLogMailer_SendVerification(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewTextHandler(&buf, nil)))

	err := m.SendVerification(context.Background(), "ada@example.com", "tok-123", false)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "ada@example.com")
	assert.Contains(t, buf.String(), "tok-123")
}

func TestNewSMTPMailer(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "mailer",
		Password: "secret",
		From:     "noreply@example.com",
		BaseURL:  "http://localhost:3000",
		BasePath: "/api/auth",
	})

	require.NoError(t, err)
	assert.NotNil(t, m)
}
