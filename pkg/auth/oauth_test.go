package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", TokenFile)
	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, saveToken(path, tok))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, got.AccessToken)
	assert.Equal(t, tok.RefreshToken, got.RefreshToken)
	assert.True(t, tok.Expiry.Equal(got.Expiry))
}

func TestTokenFromFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := tokenFromFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{nope"), 0600))
	_, err = tokenFromFile(bad)
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Reset(dir), "missing token is not an error")

	require.NoError(t, saveToken(filepath.Join(dir, TokenFile), &oauth2.Token{AccessToken: "x"}))
	require.NoError(t, Reset(dir))
	_, err := os.Stat(filepath.Join(dir, TokenFile))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocalRedirect(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "http://localhost:6789/oauth2callback"},
		{"urn:ietf:wg:oauth:2.0:oob", "http://localhost:6789/oauth2callback"},
		{"http://localhost", "http://localhost:6789"},
		{"http://localhost:8080/cb", "http://localhost:6789/cb"},
		{"http://127.0.0.1/cb", "http://127.0.0.1:6789/cb"},
		{"https://example.com/cb", "https://example.com/cb"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, localRedirect(tt.in), "redirect %q", tt.in)
	}
}

func TestGetConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := GetConfig(dir, CalendarScopes)
	assert.Error(t, err)

	secrets := `{"installed":{"client_id":"id","client_secret":"secret",` +
		`"auth_uri":"https://accounts.google.com/o/oauth2/auth",` +
		`"token_uri":"https://oauth2.googleapis.com/token",` +
		`"redirect_uris":["http://localhost"]}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ClientSecretsFile), []byte(secrets), 0600))

	cfg, err := GetConfig(dir, CalendarScopes)
	require.NoError(t, err)
	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, "http://localhost:6789", cfg.RedirectURL)
	assert.Equal(t, CalendarScopes, cfg.Scopes)
}
