package mailer

import (
	"context"
	"encoding/json"
	"testing"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"school-system/pkg/config"
)

func TestNew_DisabledFallsBackToLogMailer(t *testing.T) {
	m := New(config.MailConfig{Enabled: true}, zap.NewNop())
	_, ok := m.(*logMailer)
	assert.True(t, ok, "без ключа API используется заглушка")
	assert.NoError(t, m.Send(context.Background(), Message{Subject: "x"}))
}

func TestSendgridMailer_PrepareBody(t *testing.T) {
	m := New(config.MailConfig{Enabled: true, APIKey: "key", FromName: "School", FromEmail: "noreply@school.edu"}, zap.NewNop()).(*SendgridMailer)

	body := sgmail.GetRequestBody(m.prepare(Message{
		To:      []Recipient{{Name: "Ann", Email: "ann@school.edu"}},
		Subject: "School Deleted",
		Text:    "School 'Lincoln' has been deleted from the system.",
	}))

	var decoded struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			Subject string `json:"subject"`
			To      []struct {
				Email string `json:"email"`
			} `json:"to"`
		} `json:"personalizations"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "noreply@school.edu", decoded.From.Email)
	require.Len(t, decoded.Personalizations, 1)
	assert.Equal(t, "[School] School Deleted", decoded.Personalizations[0].Subject)
	assert.Equal(t, "ann@school.edu", decoded.Personalizations[0].To[0].Email)
}
