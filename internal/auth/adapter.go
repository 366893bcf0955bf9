package auth

import "sync"

// Adapter caches the authenticated identity and notifies listeners when it
// changes. It replaces ambient global auth state: the engine and history
// store receive an instance at construction instead of looking identity up
// globally. The cached identity is invalidated before listeners run, so a
// callback that re-reads CurrentUserID during sign-out already sees the
// new state.
type Adapter struct {
	mu        sync.RWMutex
	userID    string
	listeners []func(userID string)
}

func NewAdapter() *Adapter {
	return &Adapter{}
}

// CurrentUserID returns the signed-in user ID, or empty when anonymous.
func (a *Adapter) CurrentUserID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.userID
}

// SignIn swaps in a new identity and notifies listeners if it changed.
func (a *Adapter) SignIn(userID string) {
	a.swap(userID)
}

// SignOut clears the cached identity and notifies listeners. Session
// engines holding the old identity will refuse Finish afterwards.
func (a *Adapter) SignOut() {
	a.swap("")
}

// OnIdentityChanged registers a callback fired with the new user ID on
// sign-out (empty) or identity swap.
func (a *Adapter) OnIdentityChanged(fn func(userID string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

func (a *Adapter) swap(userID string) {
	a.mu.Lock()
	if a.userID == userID {
		a.mu.Unlock()
		return
	}
	a.userID = userID
	listeners := append(([]func(string))(nil), a.listeners...)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(userID)
	}
}
