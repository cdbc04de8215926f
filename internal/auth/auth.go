// Package auth is the collaborator behind the hierarchy filter: it loads
// the on-disk user store and turns a successful login into the
// (user, hierarchy assertion) tuple the core consumes. The core reads only
// the hierarchy field; rate limiting and session bookkeeping live with the
// caller.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
)

// ErrInvalidCredentials covers unknown users and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserType distinguishes admins from regular users.
type UserType string

const (
	TypeAdmin UserType = "admin"
	TypeUser  UserType = "user"
)

// User is one authenticated identity.
type User struct {
	Name        string
	DisplayName string
	Type        UserType
}

type hierarchyRecord struct {
	Level string          `json:"level"`
	Value json.RawMessage `json:"value"`
}

type userRecord struct {
	PasswordHash string          `json:"password_hash"`
	DisplayName  string          `json:"display_name"`
	Type         UserType        `json:"type"`
	Hierarchy    hierarchyRecord `json:"hierarchy"`
}

// Store is the file-backed user mapping.
type Store struct {
	path  string
	users map[string]userRecord
}

// Load reads the user store from a JSON file.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read user store: %w", err)
	}
	users := make(map[string]userRecord)
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse user store: %w", err)
	}
	return &Store{path: path, users: users}, nil
}

// HashPassword returns the SHA-256 hex digest of a password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Authenticate verifies a password and produces the user's hierarchy
// assertion. Admins get the see-everything assertion regardless of any
// hierarchy field.
func (s *Store) Authenticate(username, password string) (*User, model.Assertion, error) {
	rec, ok := s.users[username]
	if !ok {
		return nil, model.Assertion{}, ErrInvalidCredentials
	}
	want := []byte(rec.PasswordHash)
	got := []byte(HashPassword(password))
	if subtle.ConstantTimeCompare(want, got) != 1 {
		return nil, model.Assertion{}, ErrInvalidCredentials
	}

	user := &User{Name: username, DisplayName: rec.DisplayName, Type: rec.Type}
	if rec.Type == TypeAdmin {
		return user, model.NewAssertion(model.LevelNone, nil), nil
	}

	assertion, err := parseHierarchy(rec.Hierarchy)
	if err != nil {
		return nil, model.Assertion{}, fmt.Errorf("user %s: %w", username, err)
	}
	return user, assertion, nil
}

// parseHierarchy accepts value as either a single string or a list.
func parseHierarchy(h hierarchyRecord) (model.Assertion, error) {
	level, err := model.ParseLevel(h.Level)
	if err != nil {
		return model.Assertion{}, err
	}
	if level == model.LevelNone {
		return model.NewAssertion(model.LevelNone, nil), nil
	}

	var values []string
	if len(h.Value) > 0 {
		var single string
		if err := json.Unmarshal(h.Value, &single); err == nil {
			values = []string{single}
		} else if err := json.Unmarshal(h.Value, &values); err != nil {
			return model.Assertion{}, fmt.Errorf("hierarchy value must be a string or list: %s", h.Value)
		}
	}
	if len(values) == 0 {
		return model.Assertion{}, errors.New("hierarchy level set but no allowed values")
	}
	return model.NewAssertion(level, values), nil
}

// ResetAdminPassword rewrites the password hash of every admin user and
// persists the store. This is the only administrative CLI operation.
func ResetAdminPassword(path, newPassword string) error {
	s, err := Load(path)
	if err != nil {
		return err
	}

	resets := 0
	for name, rec := range s.users {
		if rec.Type != TypeAdmin {
			continue
		}
		rec.PasswordHash = HashPassword(newPassword)
		s.users[name] = rec
		resets++
	}
	if resets == 0 {
		return errors.New("no admin user in store")
	}

	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
