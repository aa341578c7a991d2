package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lukastechs/twitch-ban/internal/twitch"
)

// MockTwitchServer mocks the two Twitch endpoints the service calls: the
// OAuth2 client credentials exchange and the Helix user lookup. Response
// values are configurable per test, and request counts are tracked so tests
// can assert how often the upstream was consulted.
type MockTwitchServer struct {
	Server *httptest.Server

	Token       string // access token minted by the exchange endpoint
	ExpiresIn   int64  // token lifetime in seconds
	TokenStatus int    // status code for the exchange endpoint

	LookupStatus int                    // status code for the user lookup endpoint
	LookupDelay  time.Duration          // artificial latency before the lookup responds
	Users        map[string]twitch.User // known users, keyed by login

	TokenRequests  atomic.Int64 // number of exchange requests received
	LookupRequests atomic.Int64 // number of lookup requests received

	mu           sync.Mutex
	lastLogin    string
	lastClientID string
}

// SetupMockTwitchServer creates a mock Twitch server answering token
// exchanges and user lookups with configurable values and request tracking.
func SetupMockTwitchServer(t *testing.T) *MockTwitchServer {
	t.Helper()

	mock := &MockTwitchServer{
		Token:        "test-app-token",
		ExpiresIn:    3600,
		TokenStatus:  http.StatusOK,
		LookupStatus: http.StatusOK,
		Users:        map[string]twitch.User{},
	}

	router := http.NewServeMux()

	router.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		mock.TokenRequests.Add(1)

		if err := r.ParseForm(); err == nil {
			mock.mu.Lock()
			mock.lastClientID = r.PostForm.Get("client_id")
			mock.mu.Unlock()
		}

		if mock.TokenStatus != http.StatusOK {
			w.WriteHeader(mock.TokenStatus)
			return
		}

		WriteJSON(w, map[string]any{
			"access_token": mock.Token,
			"expires_in":   mock.ExpiresIn,
			"token_type":   "bearer",
		})
	})

	router.HandleFunc("GET /helix/users", func(w http.ResponseWriter, r *http.Request) {
		mock.LookupRequests.Add(1)

		login := r.URL.Query().Get("login")
		mock.mu.Lock()
		mock.lastLogin = login
		mock.mu.Unlock()

		if mock.LookupDelay > 0 {
			time.Sleep(mock.LookupDelay)
		}

		if mock.LookupStatus != http.StatusOK {
			w.WriteHeader(mock.LookupStatus)
			return
		}

		data := []twitch.User{}
		if user, ok := mock.Users[login]; ok {
			data = append(data, user)
		}

		WriteJSON(w, map[string]any{"data": data})
	})

	mock.Server = httptest.NewServer(router)
	return mock
}

// AuthURL returns the token exchange endpoint of the mock.
func (m *MockTwitchServer) AuthURL() string {
	return m.Server.URL + "/oauth2/token"
}

// APIURL returns the Helix API base URL of the mock.
func (m *MockTwitchServer) APIURL() string {
	return m.Server.URL + "/helix"
}

// LastLogin returns the login queried by the most recent user lookup.
func (m *MockTwitchServer) LastLogin() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLogin
}

// LastClientID returns the client_id sent with the most recent exchange.
func (m *MockTwitchServer) LastClientID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastClientID
}

// Close shuts down the mock server.
func (m *MockTwitchServer) Close() {
	m.Server.Close()
}

// WriteJSON is a helper function that writes a JSON response.
// It sets the Content-Type header and marshals the payload to JSON.
func WriteJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		// In test context, this should never happen with valid test data
		http.Error(w, fmt.Sprintf("failed to marshal JSON: %v", err), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}
