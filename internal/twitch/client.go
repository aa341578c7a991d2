package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lukastechs/twitch-ban/internal/config"
	"github.com/rs/zerolog/log"
)

const (
	defaultAuthURL = "https://id.twitch.tv/oauth2/token"
	defaultAPIURL  = "https://api.twitch.tv/helix"
)

// AppToken is the response of the OAuth client credentials exchange.
type AppToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Lifetime returns the upstream-declared token lifetime as a duration.
func (t AppToken) Lifetime() time.Duration {
	return time.Duration(t.ExpiresIn) * time.Second
}

// User is a single record from the Helix users endpoint.
type User struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	Description     string `json:"description"`
	ProfileImageURL string `json:"profile_image_url"`
	CreatedAt       string `json:"created_at"`
}

// Client issues the two outbound Twitch calls: the client credentials
// exchange against the identity endpoint, and the Helix user lookup. The
// client may be used concurrently.
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	authURL      string
	apiURL       string
}

func New(cfg config.TwitchConfig, transport http.RoundTripper) (Client, error) {
	if transport == nil {
		transport = http.DefaultTransport
	}

	authURL := defaultAuthURL
	if cfg.AuthURL != "" {
		// for testing use
		if _, err := url.Parse(cfg.AuthURL); err != nil {
			return Client{}, fmt.Errorf("could not parse Twitch auth URL: %w", err)
		}
		authURL = cfg.AuthURL
	}

	apiURL := defaultAPIURL
	if cfg.APIURL != "" {
		// for testing use
		if _, err := url.Parse(cfg.APIURL); err != nil {
			return Client{}, fmt.Errorf("could not parse Twitch API URL: %w", err)
		}
		apiURL = strings.TrimSuffix(cfg.APIURL, "/")
	}

	return Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.UpstreamTimeout(),
		},
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		authURL:      authURL,
		apiURL:       apiURL,
	}, nil
}

// ExchangeToken mints an app access token via the client credentials grant.
// Any failure is reported as an AuthError.
func (c Client) ExchangeToken(ctx context.Context) (AppToken, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return AppToken{}, fmt.Errorf("could not create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AppToken{}, AuthError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return AppToken{}, AuthError{StatusCode: resp.StatusCode, Message: upstreamMessage(resp.Body)}
	}

	var token AppToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return AppToken{}, AuthError{StatusCode: resp.StatusCode, Err: fmt.Errorf("malformed token response: %w", err)}
	}

	if token.AccessToken == "" {
		return AppToken{}, AuthError{StatusCode: resp.StatusCode, Message: "token response missing access_token"}
	}

	return token, nil
}

// LookupUser fetches the Helix user record for a login name. A nil User with
// a nil error means Twitch would not resolve the login: the result set was
// empty, or the endpoint answered 400/404. Both are expected outcomes for
// the caller, not transport failures.
func (c Client) LookupUser(ctx context.Context, token string, login string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/users?login="+url.QueryEscape(login), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create user lookup request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		log.Debug().Str("login", login).Int("status", resp.StatusCode).Msg("helix refused the login")
		return nil, nil

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, UpstreamError{StatusCode: resp.StatusCode, Message: upstreamMessage(resp.Body)}
	}

	var payload struct {
		Data []User `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("malformed user lookup response: %w", err)}
	}

	if remaining := resp.Header.Get("Ratelimit-Remaining"); remaining != "" {
		log.Debug().Str("remaining", remaining).Msg("helix API rate")
	}

	if len(payload.Data) == 0 {
		return nil, nil
	}

	return &payload.Data[0], nil
}

// upstreamMessage extracts the "message" field of a Twitch error response,
// falling back to the raw body when it isn't in that shape.
func upstreamMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil || len(body) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}

	return string(body)
}
