package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"stockdeck/internal/util"
)

// refreshMargin is how long before token expiry the refresh fires.
const refreshMargin = time.Minute

// User is the opaque identity supplied by the provider. This program never
// constructs or mutates identities beyond observing them.
type User struct {
	ID    string
	Email string
}

// State is the session snapshot delivered to subscribers. Resolved is
// false only before the first sign-in outcome; a resolved state with a nil
// User means anonymous.
type State struct {
	User     *User
	Resolved bool
}

// Session is the process-wide reactive auth cell. Writes happen on the
// sign-in path and the single refresh goroutine; everything else reads via
// Token or a subscription.
type Session struct {
	client *Client
	log    *slog.Logger

	mu           sync.Mutex
	state        State
	idToken      string
	refreshToken string
	cancelLoop   context.CancelFunc
	subs         map[int]chan State
	nextSub      int
}

// NewSession creates an unresolved session.
func NewSession(client *Client, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		client: client,
		log:    logger,
		subs:   make(map[int]chan State),
	}
}

// Subscribe registers for session state changes. The current state is
// delivered immediately, then every subsequent change. Each channel keeps
// only the latest state, so slow readers never block the writer. The
// returned cancel func releases the subscription.
func (s *Session) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 1)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
	return ch, cancel
}

// Token returns the current ID token, or "" when anonymous. Callers read
// it immediately before each outgoing request.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idToken
}

// State returns the current session snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ResolveAnonymous resolves the session without credentials. Used at
// startup when no stored credentials exist, so the login view can appear.
func (s *Session) ResolveAnonymous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Resolved {
		return
	}
	s.setLocked(State{Resolved: true})
}

// SignIn authenticates against the provider. On success the session
// becomes authenticated and a background refresh loop keeps the ID token
// fresh; on failure the session resolves anonymous and the error is
// returned for display.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	tok, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		s.log.Warn("sign-in failed", "email", email, "error", err)
		s.mu.Lock()
		s.setLocked(State{Resolved: true})
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.cancelLoop != nil {
		s.cancelLoop()
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancelLoop = cancel
	s.idToken = tok.IDToken
	s.refreshToken = tok.RefreshToken
	s.setLocked(State{User: &User{ID: tok.UserID, Email: tok.Email}, Resolved: true})
	s.mu.Unlock()

	s.log.Info("signed in", "user", tok.UserID)
	go s.refreshLoop(loopCtx, tok.ExpiresIn)
	return nil
}

// SignOut drops the tokens and transitions to anonymous.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelLoop != nil {
		s.cancelLoop()
		s.cancelLoop = nil
	}
	s.idToken = ""
	s.refreshToken = ""
	s.setLocked(State{Resolved: true})
}

// refreshLoop renews the ID token shortly before expiry. A refresh that
// keeps failing means the provider no longer recognises the session, which
// is treated the same as signed out.
func (s *Session) refreshLoop(ctx context.Context, expiresIn time.Duration) {
	for {
		wait := expiresIn - refreshMargin
		if wait < time.Second {
			wait = time.Second
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		s.mu.Lock()
		rt := s.refreshToken
		s.mu.Unlock()

		var next *Tokens
		err := util.Retry(ctx, 3, time.Second, func() error {
			tok, err := s.client.Refresh(ctx, rt)
			if err == nil {
				next = tok
			}
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("token refresh failed, signing out", "error", err)
			s.SignOut()
			return
		}

		s.mu.Lock()
		s.idToken = next.IDToken
		if next.RefreshToken != "" {
			s.refreshToken = next.RefreshToken
		}
		s.mu.Unlock()
		s.log.Debug("token refreshed", "expires_in", next.ExpiresIn)
		expiresIn = next.ExpiresIn
	}
}

// setLocked updates the state and notifies subscribers. Callers hold mu.
// Sends never block: a pending undelivered state is replaced by the newest
// one.
func (s *Session) setLocked(st State) {
	s.state = st
	for _, ch := range s.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}
