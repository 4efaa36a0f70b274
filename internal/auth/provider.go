package auth

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/clipshelf/clipshelf/internal/kvstore"
)

// sessionKey is where the current session is persisted so restarts stay
// signed in.
const sessionKey = "auth:session"

// State is a snapshot of the auth state delivered to subscribers.
type State struct {
	UserID    string
	Anonymous bool
}

// SignedIn reports whether a user id is known.
func (s State) SignedIn() bool { return s.UserID != "" }

// Provider holds the current session and notifies subscribers on
// transitions. Subscribers are invoked synchronously, in subscription
// order, on the goroutine performing the transition.
type Provider struct {
	client *Client
	kv     *kvstore.Store

	mu      sync.RWMutex
	state   State
	token   string
	subs    map[int]func(State)
	nextSub int
}

// NewProvider creates a provider and restores any persisted session.
func NewProvider(client *Client, kv *kvstore.Store) *Provider {
	p := &Provider{
		client: client,
		kv:     kv,
		subs:   map[int]func(State){},
	}
	p.restore()
	return p
}

func (p *Provider) restore() {
	raw, ok, err := p.kv.Get(sessionKey)
	if err != nil {
		log.Printf("Auth: failed to read persisted session: %v", err)
		return
	}
	if !ok {
		return
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		log.Printf("Auth: discarding unreadable persisted session: %v", err)
		_ = p.kv.Remove(sessionKey)
		return
	}
	p.state = State{UserID: sess.UserID, Anonymous: sess.Anonymous}
	p.token = sess.AccessToken
	log.Printf("Auth: restored session for user %s", sess.UserID)
}

func (p *Provider) persist(sess *Session) {
	if sess == nil {
		if err := p.kv.Remove(sessionKey); err != nil {
			log.Printf("Auth: failed to clear persisted session: %v", err)
		}
		return
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		log.Printf("Auth: failed to encode session: %v", err)
		return
	}
	if err := p.kv.Set(sessionKey, string(raw)); err != nil {
		log.Printf("Auth: failed to persist session: %v", err)
	}
}

// CurrentUserID returns the signed-in user id, or "" when signed out.
func (p *Provider) CurrentUserID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.UserID
}

// CurrentState returns a snapshot of the auth state.
func (p *Provider) CurrentState() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Subscribe registers fn for auth-state transitions and returns an
// unsubscribe func. fn is not called with the current state.
func (p *Provider) Subscribe(fn func(State)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *Provider) transition(sess *Session) {
	p.mu.Lock()
	if sess == nil {
		p.state = State{}
		p.token = ""
	} else {
		p.state = State{UserID: sess.UserID, Anonymous: sess.Anonymous}
		p.token = sess.AccessToken
	}
	p.persist(sess)
	state := p.state
	subs := make([]func(State), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// SignIn authenticates with email/password and notifies subscribers.
func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	sess, err := p.client.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	log.Printf("Auth: signed in user %s", sess.UserID)
	p.transition(sess)
	return nil
}

// SignInAnonymously creates an anonymous account and notifies subscribers.
func (p *Provider) SignInAnonymously(ctx context.Context) error {
	sess, err := p.client.SignInAnonymously(ctx)
	if err != nil {
		return err
	}
	log.Printf("Auth: signed in anonymous user %s", sess.UserID)
	p.transition(sess)
	return nil
}

// SignOut drops the session and notifies subscribers. The remote revocation
// is best effort; the local session is cleared either way.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.RLock()
	token := p.token
	userID := p.state.UserID
	p.mu.RUnlock()

	if userID == "" {
		return nil
	}
	if token != "" {
		if err := p.client.SignOut(ctx, token); err != nil {
			log.Printf("Auth: remote sign-out for user %s failed: %v", userID, err)
		}
	}
	log.Printf("Auth: signed out user %s", userID)
	p.transition(nil)
	return nil
}
