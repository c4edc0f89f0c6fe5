package telegram

import (
	"sync"

	"github.com/vadimtrunov/popcorn/internal/browse"
)

// session is one chat's browser plus the message that shows its results.
type session struct {
	browser *browse.Browser

	mu          sync.Mutex
	resultsMsg  int
	lastVersion uint64
}

// takeVersion reports whether v is newer than every snapshot rendered so far.
func (s *session) takeVersion(v uint64) bool {
	if v <= s.lastVersion {
		return false
	}
	s.lastVersion = v
	return true
}

// sessionManager manages per-chat sessions and access control.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[int64]*session
	allowed  map[int64]bool // nil or empty = allow all
}

// newSessionManager creates a session manager.
// If allowedUserIDs is empty, all users are allowed.
func newSessionManager(allowedUserIDs []int64) *sessionManager {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &sessionManager{
		sessions: make(map[int64]*session),
		allowed:  allowed,
	}
}

// isAllowed checks if a user is authorized to use the bot.
func (sm *sessionManager) isAllowed(userID int64) bool {
	if len(sm.allowed) == 0 {
		return true
	}
	return sm.allowed[userID]
}

// get returns the session of a chat, if any.
func (sm *sessionManager) get(chatID int64) (*session, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, ok := sm.sessions[chatID]
	return s, ok
}

// getOrCreate returns an existing session or creates one with create.
// created is true when the caller must start the new browser.
func (sm *sessionManager) getOrCreate(chatID int64, create func(*session) *browse.Browser) (s *session, created bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[chatID]; ok {
		return s, false
	}
	s = &session{}
	s.browser = create(s)
	sm.sessions[chatID] = s
	return s, true
}

// reset closes a chat's browser. The next message starts a fresh one.
func (sm *sessionManager) reset(chatID int64) {
	sm.mu.Lock()
	s, ok := sm.sessions[chatID]
	delete(sm.sessions, chatID)
	sm.mu.Unlock()
	if ok {
		s.browser.Close()
	}
}

// closeAll closes every browser.
func (sm *sessionManager) closeAll() {
	sm.mu.Lock()
	all := sm.sessions
	sm.sessions = make(map[int64]*session)
	sm.mu.Unlock()
	for _, s := range all {
		s.browser.Close()
	}
}
