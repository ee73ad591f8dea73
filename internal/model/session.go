package model

import (
	"sync"
	"time"
)

// Session is a point-in-time copy of SessionState.
type Session struct {
	JID         string
	PairingCode string
	IsConnected bool
	UpdatedAt   time.Time
}

// QRPending reports whether a pairing code is waiting to be scanned.
func (s Session) QRPending() bool {
	return s.PairingCode != ""
}

// SessionState holds the pairing code and connectivity flag shared by the
// event handler and the HTTP layer. A new pairing code clears the ready flag
// and readiness clears the code, so both are never set at once.
type SessionState struct {
	mu      sync.RWMutex
	current Session
	now     func() time.Time
}

func NewSessionState() *SessionState {
	return &SessionState{now: time.Now}
}

func (s *SessionState) SetPairingCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.PairingCode = code
	s.current.IsConnected = false
	s.current.UpdatedAt = s.now()
}

// ClearPairingCode drops an expired code without touching the ready flag.
func (s *SessionState) ClearPairingCode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.PairingCode = ""
	s.current.UpdatedAt = s.now()
}

func (s *SessionState) SetReady(jid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.PairingCode = ""
	s.current.IsConnected = true
	if jid != "" {
		s.current.JID = jid
	}
	s.current.UpdatedAt = s.now()
}

// SetDisconnected clears the ready flag. The pairing code stays absent until
// the engine issues a new one.
func (s *SessionState) SetDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.IsConnected = false
	s.current.UpdatedAt = s.now()
}

func (s *SessionState) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.IsConnected
}

func (s *SessionState) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
