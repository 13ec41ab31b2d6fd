// Package session holds the signed-in identity and persists it between runs.
//
// A Session is built once at start-up and passed explicitly to whatever
// needs it; nothing reads the store behind the caller's back.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"
)

var ErrNoSession = errors.New("no stored session")

const (
	keyToken    = "token"
	keyUsername = "username"
	keyRole     = "role"
)

// Session is the identity attached to every backend call.
type Session struct {
	Token    string
	Username string
	Role     string
}

// IsZero reports whether s carries no token.
func (s Session) IsZero() bool {
	return s.Token == ""
}

// Is reports whether the session has role.
func (s Session) Is(role string) bool {
	return s.Role == role
}

// Valid reports whether the token may still be used at now. Opaque tokens
// are valid while non-empty; JWTs are additionally checked for expiry.
// The signature is not verified here, that is the backend's job.
func (s Session) Valid(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	exp, ok := expiry(s.Token)
	if !ok {
		return true
	}
	return now.Before(exp)
}

func expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Store is a small persistent string map kept in a YAML file.
type Store struct {
	path string
}

// NewStore returns a store backed by path. The file is created on first Save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath is $XDG_CONFIG_HOME/crm-admin/session.yaml (or the OS equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "crm-admin-session.yaml"
	}
	return filepath.Join(dir, "crm-admin", "session.yaml")
}

// Path is the file backing the store.
func (st *Store) Path() string { return st.path }

func (st *Store) read() (map[string]string, error) {
	buf, err := os.ReadFile(st.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	kv := map[string]string{}
	if err := yaml.Unmarshal(buf, &kv); err != nil {
		return nil, fmt.Errorf("session file %s: %w", st.path, err)
	}
	return kv, nil
}

func (st *Store) write(kv map[string]string) error {
	buf, err := yaml.Marshal(kv)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(st.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(st.path, buf, 0o600)
}

// Load returns the stored session, or ErrNoSession if no token is stored.
func (st *Store) Load() (Session, error) {
	kv, err := st.read()
	if err != nil {
		return Session{}, err
	}
	s := Session{
		Token:    kv[keyToken],
		Username: kv[keyUsername],
		Role:     kv[keyRole],
	}
	if s.IsZero() {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Save persists s, replacing any stored identity.
func (st *Store) Save(s Session) error {
	kv, err := st.read()
	if err != nil {
		return err
	}
	kv[keyToken] = s.Token
	kv[keyUsername] = s.Username
	kv[keyRole] = s.Role
	return st.write(kv)
}

// Clear forgets the stored identity.
func (st *Store) Clear() error {
	kv, err := st.read()
	if err != nil {
		return err
	}
	delete(kv, keyToken)
	delete(kv, keyUsername)
	delete(kv, keyRole)
	if len(kv) == 0 {
		if err := os.Remove(st.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return st.write(kv)
}
