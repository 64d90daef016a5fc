// Package yggdrasiltest provides an in-memory Yggdrasil server for tests and
// examples. Access tokens are HS256 JWTs carrying the same claims the public
// server issues (sub, yggt, spr, exp).
package yggdrasiltest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MrEthical07/yggauth/yggdrasil"
)

// Account is a user known to the fake server.
type Account struct {
	Username string
	Password string
	Profiles []yggdrasil.Profile
	User     yggdrasil.User
}

type issued struct {
	clientToken string
	username    string
	expired     bool
}

type fault struct {
	status int
	body   string
}

// Server is an httptest-backed Yggdrasil implementation.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]Account
	tokens   map[string]issued
	faults   map[string][]fault
	calls    map[string]int
	key      []byte
	ttl      time.Duration
}

// NewServer starts a fake server. Call Close when done.
func NewServer(accounts ...Account) *Server {
	s := &Server{
		accounts: make(map[string]Account, len(accounts)),
		tokens:   make(map[string]issued),
		faults:   make(map[string][]fault),
		calls:    make(map[string]int),
		key:      []byte(uuid.NewString()),
		ttl:      24 * time.Hour,
	}
	for _, a := range accounts {
		s.accounts[a.Username] = a
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /authenticate", s.handleAuthenticate)
	mux.HandleFunc("POST /validate", s.handleValidate)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.HandleFunc("POST /invalidate", s.handleInvalidate)
	s.Server = httptest.NewServer(s.count(mux))
	return s
}

// Calls returns how many requests hit path (e.g. "/validate").
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// TotalCalls returns the number of requests served on any path.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// FailNext makes the next request to path answer with status and body.
func (s *Server) FailNext(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = append(s.faults[path], fault{status: status, body: body})
}

// Expire marks accessToken as expired; the token stays syntactically valid.
func (s *Server) Expire(accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[accessToken]; ok {
		t.expired = true
		s.tokens[accessToken] = t
	}
}

// Revoke forgets accessToken entirely.
func (s *Server) Revoke(accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, accessToken)
}

// SetProfiles replaces the profiles returned for username.
func (s *Server) SetProfiles(username string, profiles []yggdrasil.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[username]
	a.Profiles = profiles
	s.accounts[username] = a
}

// IssueToken mints an access token for username without a login round trip.
func (s *Server) IssueToken(username, clientToken string, ttl time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(username, clientToken, ttl)
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		var f *fault
		if q := s.faults[r.URL.Path]; len(q) > 0 {
			f = &q[0]
			s.faults[r.URL.Path] = q[1:]
		}
		s.mu.Unlock()

		if f != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) issueLocked(username, clientToken string, ttl time.Duration) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  uuid.NewString(),
		"yggt": strings.ReplaceAll(uuid.NewString(), "-", ""),
		"iss":  "Yggdrasil-Auth",
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	if a, ok := s.accounts[username]; ok && len(a.Profiles) > 0 {
		claims["spr"] = a.Profiles[0].ID
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		panic(err)
	}
	s.tokens[token] = issued{clientToken: clientToken, username: username}
	return token
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req yggdrasil.AuthenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "IllegalArgumentException", "malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[req.Username]
	if !ok || a.Password != req.Password {
		writeError(w, http.StatusForbidden, "ForbiddenOperationException", "Invalid credentials. Invalid username or password.")
		return
	}
	clientToken := req.ClientToken
	if clientToken == "" {
		clientToken = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	resp := yggdrasil.Session{
		AccessToken:       s.issueLocked(a.Username, clientToken, s.ttl),
		ClientToken:       clientToken,
		AvailableProfiles: append([]yggdrasil.Profile(nil), a.Profiles...),
	}
	if len(a.Profiles) > 0 {
		selected := a.Profiles[0]
		resp.SelectedProfile = &selected
	}
	if req.RequestUser {
		user := a.User.Clone()
		resp.User = &user
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"accessToken"`
		ClientToken string `json:"clientToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "IllegalArgumentException", "malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[req.AccessToken]
	if !ok || (req.ClientToken != "" && req.ClientToken != t.clientToken) {
		writeError(w, http.StatusForbidden, "ForbiddenOperationException", "Invalid token")
		return
	}
	if t.expired {
		writeError(w, http.StatusForbidden, "ForbiddenOperationException", "Token expired")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req yggdrasil.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "IllegalArgumentException", "malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[req.AccessToken]
	if !ok || req.ClientToken != t.clientToken {
		writeError(w, http.StatusForbidden, "ForbiddenOperationException", "Invalid token.")
		return
	}
	delete(s.tokens, req.AccessToken)

	a := s.accounts[t.username]
	resp := yggdrasil.Session{
		AccessToken:       s.issueLocked(t.username, t.clientToken, s.ttl),
		ClientToken:       t.clientToken,
		AvailableProfiles: append([]yggdrasil.Profile(nil), a.Profiles...),
	}
	if req.SelectedProfile != nil {
		selected := *req.SelectedProfile
		resp.SelectedProfile = &selected
	}
	if req.RequestUser {
		user := a.User.Clone()
		resp.User = &user
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"accessToken"`
		ClientToken string `json:"clientToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "IllegalArgumentException", "malformed request")
		return
	}

	s.mu.Lock()
	delete(s.tokens, req.AccessToken)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]string{"error": kind, "errorMessage": msg})
}
