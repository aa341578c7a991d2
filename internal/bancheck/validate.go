package bancheck

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidLogin reports input that cannot be a Twitch login name.
var ErrInvalidLogin = errors.New("login must be 3-25 characters of letters, numbers or underscores")

var loginPattern = regexp.MustCompile(`^[a-z0-9_]{3,25}$`)

// NormalizeLogin trims and lowercases raw input, yielding the canonical form
// used as the cache key and the upstream query parameter.
func NormalizeLogin(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidateLogin checks a normalized login against the Twitch username
// format. Input failing this check must never reach upstream.
func ValidateLogin(login string) error {
	if !loginPattern.MatchString(login) {
		return ErrInvalidLogin
	}
	return nil
}
