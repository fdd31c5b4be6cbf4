// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "osti-username-test", "  pppl_test  \n")
				writeFile(t, dir, "osti-password-test", "s3cret")
				writeFile(t, dir, "osti-username-prod", "pppl_prod\n")
				return dir
			},
			want: map[string]string{
				"osti-username-test": "pppl_test",
				"osti-password-test": "s3cret",
				"osti-username-prod": "pppl_prod",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "osti-password-prod", "valid")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"osti-password-prod": "valid",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "osti-username-prod", "real")
				return dir
			},
			want: map[string]string{
				"osti-username-prod": "real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "osti-password-test", "pw")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"osti-password-test": "pw",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	// Create a file then remove read permission.
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir)
	require.NoError(t, err)
	// The good file should still be returned; the bad file is skipped with a warning.
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func clearOSTIEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OSTI_USERNAME_TEST", "OSTI_PASSWORD_TEST", "OSTI_USERNAME_PROD", "OSTI_PASSWORD_PROD"} {
		t.Setenv(k, "")
	}
}

func TestStoreCredentialsFromFiles(t *testing.T) {
	clearOSTIEnv(t)
	s, err := NewStore(map[string]string{
		KeyUsernameTest: "file-user",
		KeyPasswordTest: "file-pass",
	})
	require.NoError(t, err)

	c, err := s.Credentials("test")
	require.NoError(t, err)
	assert.Equal(t, "file-user", c.Username)
	assert.Equal(t, "file-pass", c.Password)

	_, err = s.Credentials("prod")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OSTI_USERNAME_PROD")

	_, err = s.Credentials("dry-run")
	assert.Error(t, err)
}

func TestStoreEnvironmentOverridesFiles(t *testing.T) {
	clearOSTIEnv(t)
	t.Setenv("OSTI_USERNAME_PROD", "env-user")
	t.Setenv("OSTI_PASSWORD_PROD", "env-pass")

	s, err := NewStore(map[string]string{KeyUsernameProd: "file-user", KeyPasswordProd: "file-pass"})
	require.NoError(t, err)
	c, err := s.Credentials("prod")
	require.NoError(t, err)
	assert.Equal(t, "env-user", c.Username)
	assert.Equal(t, "env-pass", c.Password)
	assert.Equal(t, []string{KeyPasswordProd, KeyUsernameProd}, s.Keys())
}

func TestLoadDotEnv(t *testing.T) {
	clearOSTIEnv(t)
	t.Setenv("OSTI_PASSWORD_TEST", "already-set")
	os.Unsetenv("OSTI_USERNAME_TEST")

	dir := t.TempDir()
	writeFile(t, dir, ".env", "OSTI_USERNAME_TEST=dotenv-user\nOSTI_PASSWORD_TEST=dotenv-pass\n")
	require.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")))
	t.Cleanup(func() { os.Unsetenv("OSTI_USERNAME_TEST") })

	s, err := NewStore(nil)
	require.NoError(t, err)
	c, err := s.Credentials("test")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-user", c.Username)
	assert.Equal(t, "already-set", c.Password, "existing variables win over .env")

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
