package domain

import (
	"sync"

	"github.com/google/uuid"
)

// FetchSession carries the authentication and transport flags negotiated for
// one video URL. Flags established by the information fetch are reused
// unchanged by the subsequent download so both network operations behave
// consistently.
type FetchSession struct {
	ID  string
	URL string

	mu            sync.RWMutex
	authArgs      []string
	authSource    string
	transportArgs []string
}

// NewFetchSession creates a session for a validated URL
func NewFetchSession(url string) *FetchSession {
	return &FetchSession{
		ID:  uuid.New().String(),
		URL: url,
	}
}

// SetAuth records the credential candidate that succeeded
func (s *FetchSession) SetAuth(args []string, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authArgs = append([]string(nil), args...)
	s.authSource = source
}

// AuthArgs returns a copy of the established credential arguments
func (s *FetchSession) AuthArgs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.authArgs...)
}

// AuthSource returns the human-readable label of the credential source,
// e.g. "cookies_file" or "browser:edge". Empty when no auth was needed.
func (s *FetchSession) AuthSource() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authSource
}

// SetTransportArgs records the transport override once a relaxed-verification
// attempt has succeeded
func (s *FetchSession) SetTransportArgs(args []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transportArgs = append([]string(nil), args...)
}

// TransportArgs returns a copy of the established transport arguments
func (s *FetchSession) TransportArgs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.transportArgs...)
}

// TransportRelaxed reports whether certificate verification was relaxed
func (s *FetchSession) TransportRelaxed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transportArgs) > 0
}
