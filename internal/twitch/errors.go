package twitch

import (
	"fmt"
	"net/http"
)

// AuthError indicates the app token exchange with the Twitch identity
// endpoint failed.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("twitch token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("twitch token exchange failed: status %d: %s", e.StatusCode, e.Message)
}

func (e AuthError) Unwrap() error {
	return e.Err
}

func (e AuthError) Status() (int, string) {
	return http.StatusServiceUnavailable, "twitch authentication unavailable"
}

// UpstreamError indicates a Helix call failed in a way that carries no
// verdict about the requested login: a timeout, a transport error, or an
// unexpected response status.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("twitch user lookup failed: %v", e.Err)
	}
	return fmt.Sprintf("twitch user lookup failed: status %d: %s", e.StatusCode, e.Message)
}

func (e UpstreamError) Unwrap() error {
	return e.Err
}

func (e UpstreamError) Status() (int, string) {
	return http.StatusServiceUnavailable, "twitch api unavailable"
}
