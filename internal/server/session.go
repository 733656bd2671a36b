package server

import "sync"

// SessionState tracks the lifecycle of a client connection.
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateActive
	StateShuttingDown
)

// Session holds per-connection state: the lifecycle phase and counters
// reported back on shutdown. Safe for concurrent use.
type Session struct {
	mu                   sync.Mutex
	state                SessionState
	comparisonsCompleted int
	analysesCompleted    int
}

// NewSession returns a fresh uninitialized session.
func NewSession() *Session {
	return &Session{state: StateUninitialized}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState transitions the session to the given state.
func (s *Session) SetState(state SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// IncrementComparisons records a completed trajectory comparison.
func (s *Session) IncrementComparisons() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comparisonsCompleted++
}

// IncrementAnalyses records a completed status analysis.
func (s *Session) IncrementAnalyses() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysesCompleted++
}

// Counters returns the number of comparisons and analyses completed so far.
func (s *Session) Counters() (comparisons, analyses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comparisonsCompleted, s.analysesCompleted
}
