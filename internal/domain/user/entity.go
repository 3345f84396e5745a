package user

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedEmail is returned when an email has no provider part to derive.
var ErrMalformedEmail = errors.New("malformed email")

// User represents a registered person.
// IDs are not unique: the same ID may appear on several records.
type User struct {
	ID        int64    `json:"id"`         // ID is the record identifier, duplicates allowed
	FirstName string   `json:"first_name"` // FirstName is the given name
	LastName  string   `json:"last_name"`  // LastName is the family name
	Email     string   `json:"email"`      // Email is the contact address, possibly untrimmed
	Age       int      `json:"age"`        // Age in years
	Interests []string `json:"interests"`  // Interests is an ordered list of tags, may be empty
}

// FullName returns the first and last name separated by a single space.
func (u User) FullName() string {
	return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
}

// EmailProvider returns the domain part of the email, the text after '@'.
func (u User) EmailProvider() (string, error) {
	local, provider, ok := strings.Cut(u.Email, "@")
	if !ok || local == "" || provider == "" || strings.Contains(provider, "@") {
		return "", fmt.Errorf("%w: %q", ErrMalformedEmail, u.Email)
	}
	return provider, nil
}

// HasEmailSuffix reports whether the email ends with suffix.
func (u User) HasEmailSuffix(suffix string) bool {
	return strings.HasSuffix(u.Email, suffix)
}

// IsAtLeast reports whether the user is minAge years old or older.
func (u User) IsAtLeast(minAge int) bool {
	return u.Age >= minAge
}

// Clone returns a deep copy so the interests slice is not shared.
// Nil and empty interests are preserved as they are.
func (u User) Clone() User {
	c := u
	if u.Interests != nil {
		c.Interests = append(make([]string, 0, len(u.Interests)), u.Interests...)
	}
	return c
}

// CloneAll deep copies a list of users, keeping order and duplicates.
func CloneAll(users []User) []User {
	if users == nil {
		return nil
	}
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = u.Clone()
	}
	return out
}
