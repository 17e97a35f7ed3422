package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWelcome(t *testing.T) {
	msg, err := render("user_welcome.tmpl", map[string]any{
		"ID":   "65f0c0ffee",
		"Name": "Ada <script>",
	})
	require.NoError(t, err)

	assert.Equal(t, "Welcome to CineScope!", msg.subject)
	assert.Contains(t, msg.plainBody, "your user ID number is 65f0c0ffee")
	assert.Contains(t, msg.htmlBody, "Hi Ada &lt;script&gt;,")
}

func TestRenderBlocked(t *testing.T) {
	msg, err := render("account_blocked.tmpl", map[string]any{"Name": "Sam"})
	require.NoError(t, err)

	assert.Equal(t, "Your CineScope account has been suspended", msg.subject)
	assert.Contains(t, msg.plainBody, "Hi Sam,")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := render("missing.tmpl", nil)
	assert.Error(t, err)
}

func TestSendFailsWithoutServer(t *testing.T) {
	m := New("127.0.0.1", 1, "", "", "CineScope <no-reply@cinescope.local>")
	m.retryDelay = 0

	err := m.Send("someone@example.com", "user_welcome.tmpl", map[string]any{"ID": "1", "Name": "x"})
	assert.Error(t, err)
}
