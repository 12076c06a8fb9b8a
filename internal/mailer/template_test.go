package mailer_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/mailroom/internal/mailer"
)

func TestRender_BuiltinTemplates(t *testing.T) {
	r := mailer.NewRenderer("")

	tests := []struct {
		template string
		ctx      map[string]any
		contains string
	}{
		{"welcome", map[string]any{"name": "Ann", "app_name": "Shop"}, "Welcome to Shop"},
		{"otp", map[string]any{"name": "Ann", "otp": "123456", "app_name": "Shop"}, "123456"},
		{"password_reset", map[string]any{"name": "Ann", "reset_link": "https://x/r", "app_name": "Shop"}, "https://x/r"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			html, err := r.Render(tt.template, tt.ctx)
			require.NoError(t, err)
			assert.Contains(t, html, tt.contains)
			assert.Contains(t, html, "Ann")
		})
	}
}

func TestRender_MissingTemplateIsPermanent(t *testing.T) {
	r := mailer.NewRenderer("")

	_, err := r.Render("does_not_exist", nil)
	require.Error(t, err)
	assert.True(t, mailer.IsPermanent(err))
}

func TestRender_InvalidNameIsPermanent(t *testing.T) {
	r := mailer.NewRenderer("")

	for _, name := range []string{"", "../welcome", "a/b"} {
		_, err := r.Render(name, nil)
		require.Error(t, err, "name=%q", name)
		assert.True(t, mailer.IsPermanent(err), "name=%q", name)
	}
}

func TestRender_DirOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	custom := []byte(`<p>custom {{.name}}</p>`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "welcome.template.html"), custom, 0600))

	r := mailer.NewRenderer(dir)

	html, err := r.Render("welcome", map[string]any{"name": "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "<p>custom Ann</p>", html)

	// Templates absent from the override dir fall back to the embedded set.
	html, err = r.Render("otp", map[string]any{"name": "Ann", "otp": "42", "app_name": "Shop"})
	require.NoError(t, err)
	assert.Contains(t, html, "42")
}

func TestRender_MissingContextKeysRenderEmpty(t *testing.T) {
	// html/template leaves absent map keys blank rather than erroring, so a
	// sparse context still renders.
	r := mailer.NewRenderer("")
	html, err := r.Render("welcome", map[string]any{})
	require.NoError(t, err)
	assert.NotEmpty(t, html)
}

func TestPermanentErrorWrapping(t *testing.T) {
	base := errors.New("boom")

	wrapped := mailer.Permanent(base)
	assert.True(t, mailer.IsPermanent(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "boom", wrapped.Error())

	assert.False(t, mailer.IsPermanent(base))
	assert.NoError(t, mailer.Permanent(nil))
}
