// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads OSTI E-Link credentials. Values come from, in
// increasing precedence: a directory of plain-text files (the filename is
// the key, the trimmed contents the value), a .env file, and the
// OSTI_USERNAME_TEST, OSTI_PASSWORD_TEST, OSTI_USERNAME_PROD and
// OSTI_PASSWORD_PROD environment variables.
//
// Supported key files: osti-username-test, osti-password-test,
// osti-username-prod, osti-password-prod.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/pdiddy/osti-sync/internal/logging"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// Key file names.
const (
	KeyUsernameTest = "osti-username-test"
	KeyPasswordTest = "osti-password-test"
	KeyUsernameProd = "osti-username-prod"
	KeyPasswordProd = "osti-password-prod"
)

// EnvPrefix is the envconfig prefix for credential variables.
const EnvPrefix = "OSTI"

// Env holds credentials read from the environment.
type Env struct {
	UsernameTest string `envconfig:"USERNAME_TEST"`
	PasswordTest string `envconfig:"PASSWORD_TEST"`
	UsernameProd string `envconfig:"USERNAME_PROD"`
	PasswordProd string `envconfig:"PASSWORD_PROD"`
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logging.Default().Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Store resolves credentials per mode from file secrets and the environment.
type Store struct {
	files map[string]string
	env   Env
}

// NewStore decodes the OSTI_* environment on top of file secrets.
func NewStore(files map[string]string) (*Store, error) {
	s := &Store{files: files}
	if err := envconfig.Process(EnvPrefix, &s.env); err != nil {
		return nil, fmt.Errorf("reading %s_* environment: %w", EnvPrefix, err)
	}
	return s, nil
}

// Keys returns the sorted names of the file secrets that were loaded.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.files))
	for k := range s.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Credentials returns the username and password for mode ("test" or
// "prod"). Both values must be present.
func (s *Store) Credentials(mode string) (types.Credentials, error) {
	var c types.Credentials
	switch mode {
	case "test":
		c = types.Credentials{
			Username: first(s.env.UsernameTest, s.files[KeyUsernameTest]),
			Password: first(s.env.PasswordTest, s.files[KeyPasswordTest]),
		}
	case "prod":
		c = types.Credentials{
			Username: first(s.env.UsernameProd, s.files[KeyUsernameProd]),
			Password: first(s.env.PasswordProd, s.files[KeyPasswordProd]),
		}
	default:
		return types.Credentials{}, fmt.Errorf("no credentials for mode %q", mode)
	}
	if c.Username == "" || c.Password == "" {
		upper := strings.ToUpper(mode)
		return types.Credentials{}, fmt.Errorf("missing %s credentials: set %s_USERNAME_%s and %s_PASSWORD_%s",
			mode, EnvPrefix, upper, EnvPrefix, upper)
	}
	return c, nil
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
