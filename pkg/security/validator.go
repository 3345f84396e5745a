package security

import (
	"errors"
	"unicode/utf8"
)

const (
	// MaxQueryTermLength defines the maximum allowed length for free-text query terms
	MaxQueryTermLength = 100
)

var (
	// ErrQueryTermTooLong is returned for terms over MaxQueryTermLength runes.
	ErrQueryTermTooLong = errors.New("query term too long")
	// ErrQueryTermInvalid is returned for terms that are not valid UTF-8.
	ErrQueryTermInvalid = errors.New("query term is not valid UTF-8")
)

// ValidateQueryTerm checks a free-text term such as an interest or an email suffix.
// Any character is allowed; terms are only compared, never interpreted.
// Surrounding whitespace is kept: an interest or suffix is compared verbatim.
func ValidateQueryTerm(term string) error {
	if !utf8.ValidString(term) {
		return ErrQueryTermInvalid
	}
	if utf8.RuneCountInString(term) > MaxQueryTermLength {
		return ErrQueryTermTooLong
	}
	return nil
}
