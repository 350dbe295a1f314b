package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_ForgotPassword(t *testing.T) {
	data := map[string]any{
		"email":        "alice@example.com",
		"link":         "https://app.test/reset?token=abc",
		"expires_at":   "2026-03-01T12:30:00Z",
		"ttl_minutes":  30,
		"company_name": "Acme",
	}
	subject, text, html, err := Render(ForgotPassword, data)
	require.NoError(t, err)

	assert.Equal(t, "Reset your Acme password", subject)
	assert.Contains(t, text, "https://app.test/reset?token=abc")
	assert.Contains(t, text, "01 March 2026, 12:30 UTC")
	assert.Contains(t, html, `href="https://app.test/reset?token=abc"`)
	assert.NotContains(t, text, "Need help?")
}

func TestRender_VerifyEmailDefaults(t *testing.T) {
	data := map[string]any{
		"email":       "bob@example.com",
		"link":        "https://api.test/verify?token=x",
		"support_url": "https://help.test",
	}
	subject, text, _, err := Render(VerifyEmail, data)
	require.NoError(t, err)

	assert.Equal(t, "Confirm your email for your account", subject)
	assert.Contains(t, text, "Need help? https://help.test")
}

func TestRender_EscapesHTML(t *testing.T) {
	data := map[string]any{"email": "<script>x</script>@example.com", "link": "https://a.test"}
	_, _, html, err := Render(VerifyEmail, data)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, _, err := Render("login_otp", map[string]any{})
	assert.Error(t, err)
	assert.False(t, Known("login_otp"))
	assert.True(t, Known(VerifyEmail))
}
