package templates

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderWelcome(t *testing.T) {
	subject, text, html, err := Render("welcome", map[string]any{"Name": "Ada"})
	require.NoError(t, err)
	require.Contains(t, subject, "Ada")
	require.Contains(t, text, "Ada")
	require.Contains(t, html, "Ada")
}

func TestRenderReviewReceived(t *testing.T) {
	subject, text, html, err := Render("review_received", map[string]any{
		"Name":      "Ada",
		"RaterName": "Grace",
		"Rating":    5,
	})
	require.NoError(t, err)
	require.Contains(t, subject, "Grace")
	require.Contains(t, text, "5")
	require.Contains(t, html, "Grace")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("no_such_template", nil)
	require.Error(t, err)
}
