package authclient

import (
	"fmt"
	"sync"
)

// Subscriber receives every committed session state. Callbacks run outside
// the store lock, in subscription order.
type Subscriber func(SessionState)

// SessionStore holds the process's single SessionState and broadcasts
// changes. It is created at startup with StatusUnknown and is the only shared
// mutable resource in this package; all mutation goes through Set.
//
// The store itself cannot fail: writes that would break an invariant are
// coerced toward the logged-out state and logged, never rejected.
type SessionStore struct {
	mu      sync.RWMutex
	state   SessionState
	version uint64
	nextID  int
	subs    map[int]Subscriber
	logger  Logger

	transitions map[Status]map[Status]struct{}
}

// StoreOption customizes store construction.
type StoreOption func(*SessionStore)

// WithStoreLogger overrides the logger used for coerced writes.
func WithStoreLogger(logger Logger) StoreOption {
	return func(st *SessionStore) {
		if logger != nil {
			st.logger = logger
		}
	}
}

// NewSessionStore returns a store at StatusUnknown.
func NewSessionStore(opts ...StoreOption) *SessionStore {
	st := &SessionStore{
		state:  SessionState{Status: StatusUnknown},
		subs:   map[int]Subscriber{},
		logger: defLogger{},
		transitions: map[Status]map[Status]struct{}{
			StatusUnknown: {
				StatusAuthenticated:   {},
				StatusUnauthenticated: {},
			},
			StatusAuthenticated: {
				StatusAuthenticated:   {},
				StatusUnauthenticated: {},
			},
			StatusUnauthenticated: {
				StatusAuthenticated:   {},
				StatusUnauthenticated: {},
			},
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(st)
		}
	}

	return st
}

// Current is a synchronous read with no side effects.
func (st *SessionStore) Current() SessionState {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.state
}

// Version increments on every committed write. Reconciliation uses it to
// discard verification responses that were superseded while in flight.
func (st *SessionStore) Version() uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.version
}

// Set replaces the session state wholesale and notifies subscribers. Two
// coercions keep the store total:
//   - Authenticated with a nil user degrades to Unauthenticated; the
//     authenticated-implies-user invariant holds for every reachable state.
//   - A write back to Unknown is not a transition (only Reset re-enters it),
//     so it also degrades to Unauthenticated.
//
// The committed state is returned.
func (st *SessionStore) Set(next SessionState) SessionState {
	st.mu.Lock()

	if next.Status == StatusAuthenticated && next.User == nil {
		st.logger.Warn("authenticated state without user, coercing to unauthenticated")
		next = SessionState{Status: StatusUnauthenticated}
	}

	if _, ok := st.transitions[st.state.Status][next.Status]; !ok {
		st.logger.Warn("invalid session transition, coercing to unauthenticated",
			"from", st.state.Status, "to", next.Status)
		next = SessionState{Status: StatusUnauthenticated}
	}

	if next.Status != StatusAuthenticated {
		next.User = nil
	}

	st.state = next
	st.version++
	subs := st.snapshotSubscribers()
	st.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}

	return next
}

// Reset returns the store to StatusUnknown. Nothing in the normal lifecycle
// calls this; it exists for the full-reload analogue (tests, app restart
// within one process).
func (st *SessionStore) Reset() {
	st.mu.Lock()
	st.state = SessionState{Status: StatusUnknown}
	st.version++
	subs := st.snapshotSubscribers()
	state := st.state
	st.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Subscribe registers fn for every future committed state and returns an
// unsubscribe func. The current state is not replayed.
func (st *SessionStore) Subscribe(fn Subscriber) func() {
	if fn == nil {
		return func() {}
	}

	st.mu.Lock()
	id := st.nextID
	st.nextID++
	st.subs[id] = fn
	st.mu.Unlock()

	return func() {
		st.mu.Lock()
		delete(st.subs, id)
		st.mu.Unlock()
	}
}

func (st *SessionStore) snapshotSubscribers() []Subscriber {
	subs := make([]Subscriber, 0, len(st.subs))
	for id := 0; id < st.nextID; id++ {
		if fn, ok := st.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

func (s SessionState) String() string {
	user := "<nil>"
	if s.User != nil {
		user = s.User.DisplayName()
	}
	return fmt.Sprintf("status=%s user=%s credential=%v", s.Status, user, s.Credential != "")
}
