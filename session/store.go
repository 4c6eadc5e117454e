package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chainctl/actioneer/logger"
	"go.uber.org/zap"
)

const sessionKey = "session"

// Backend is the opaque persisted store the session survives reloads in.
type Backend interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

type state struct {
	Address       string `json:"address"`
	Secret        string `json:"secret"`
	UnlockedUntil int64  `json:"unlockedUntil"`
}

// Store owns the process-wide session. It is read by many call sites and
// mutated only through Unlock, Lock and Renew.
type Store struct {
	backend  Backend
	ttl      time.Duration
	mu       sync.Mutex
	now      func() time.Time
	onUnlock []func()
	unlockMu sync.Mutex
}

func NewStore(backend Backend, ttl time.Duration) *Store {
	return &Store{
		backend: backend,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Unlock stores the secret material with a fresh expiry and notifies
// subscribers waiting on an authorization gate.
func (s *Store) Unlock(address string, secret string) error {
	if secret == "" {
		return fmt.Errorf("empty session secret")
	}
	s.mu.Lock()
	st := state{
		Address:       address,
		Secret:        secret,
		UnlockedUntil: s.now().Add(s.ttl).Unix(),
	}
	err := s.save(&st)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	logger.Info("session unlocked", zap.String("address", address))
	s.unlockMu.Lock()
	watchers := s.onUnlock
	s.unlockMu.Unlock()
	for _, fn := range watchers {
		fn()
	}
	return nil
}

func (s *Store) Lock() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger.Info("session locked")
	return s.backend.Delete(sessionKey)
}

// IsUnlocked reports whether secret material is present and unexpired.
func (s *Store) IsUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.load()
	return st != nil && st.Secret != "" && s.now().Unix() < st.UnlockedUntil
}

func (s *Store) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.load()
	if st == nil || st.Secret == "" {
		return 0
	}
	remaining := st.UnlockedUntil - s.now().Unix()
	if remaining < 0 {
		return 0
	}
	return int(remaining)
}

// Renew pushes the expiry forward by the configured timeout. A no-op when the
// session is not currently unlocked.
func (s *Store) Renew() {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.load()
	if st == nil || st.Secret == "" || s.now().Unix() >= st.UnlockedUntil {
		return
	}
	st.UnlockedUntil = s.now().Add(s.ttl).Unix()
	if err := s.save(st); err != nil {
		logger.Error("session renew failed", zap.Error(err))
	}
}

// Secret returns the unlocked secret material, or false when locked.
func (s *Store) Secret() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.load()
	if st == nil || st.Secret == "" || s.now().Unix() >= st.UnlockedUntil {
		return "", false
	}
	return st.Secret, true
}

func (s *Store) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.load(); st != nil {
		return st.Address
	}
	return ""
}

// OnUnlock registers a callback fired after every successful unlock.
func (s *Store) OnUnlock(fn func()) {
	s.unlockMu.Lock()
	defer s.unlockMu.Unlock()
	s.onUnlock = append(s.onUnlock, fn)
}

// Sweep drops an expired session from the backend. Run periodically.
func (s *Store) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.load()
	if st == nil || s.now().Unix() < st.UnlockedUntil {
		return
	}
	if err := s.backend.Delete(sessionKey); err != nil {
		logger.Error("session sweep failed", zap.Error(err))
	}
}

func (s *Store) load() *state {
	data, found, err := s.backend.Get(sessionKey)
	if err != nil || !found {
		return nil
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil
	}
	return &st
}

func (s *Store) save(st *state) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.backend.Set(sessionKey, data)
}
