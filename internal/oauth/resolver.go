// Package oauth turns the Discord OAuth redirect into a stored session token.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

// State is a step of the redirect resolution.
type State int

const (
	Pending State = iota
	Exchanging
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Exchanging:
		return "exchanging"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// HomePath is where the browser goes once a token is stored.
const HomePath = "/"

// ErrNoCode means the redirect carried no authorization code. It is a
// precondition failure: the resolver never retries and never reaches Done.
var ErrNoCode = errors.New("no authorization code in redirect")

// ExchangeError is returned when the provider denied access or the code
// could not be traded for a token.
type ExchangeError struct {
	Reason string
	Err    error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token exchange failed: %s: %v", e.Reason, e.Err)
	}
	return "token exchange failed: " + e.Reason
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Exchanger trades an authorization code for an access token.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// ExchangerFunc adapts a function to Exchanger.
type ExchangerFunc func(ctx context.Context, code string) (string, error)

func (f ExchangerFunc) Exchange(ctx context.Context, code string) (string, error) {
	return f(ctx, code)
}

// TokenStore receives the token once the exchange succeeds.
type TokenStore interface {
	SetToken(ctx context.Context, token string) error
}

// Resolver drives one redirect from Pending to Done or Failed.
type Resolver struct {
	exchanger Exchanger
	store     TokenStore
	logger    *zap.Logger

	// OnTransition, if set, is called synchronously on every state change.
	OnTransition func(State)

	mu    sync.Mutex
	state State
	err   error
}

// NewResolver creates a Resolver in the Pending state.
func NewResolver(ex Exchanger, store TokenStore, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{exchanger: ex, store: store, logger: logger.Named("oauth")}
}

// State returns the current state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the error that moved the resolver to Failed, if any.
func (r *Resolver) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Resolve reads the redirect query, exchanges the code and stores the
// token. It returns the path to navigate to on success.
func (r *Resolver) Resolve(ctx context.Context, query url.Values) (string, error) {
	if r.State() != Pending {
		return "", fmt.Errorf("resolver already %s", r.State())
	}

	if reason := query.Get("error"); reason != "" {
		if desc := query.Get("error_description"); desc != "" {
			reason = reason + ": " + desc
		}
		return "", r.fail(&ExchangeError{Reason: reason})
	}

	code := query.Get("code")
	if code == "" {
		r.logger.Warn("redirect without authorization code")
		return "", ErrNoCode
	}

	r.transition(Exchanging, nil)

	token, err := r.exchanger.Exchange(ctx, code)
	if err != nil {
		return "", r.fail(&ExchangeError{Reason: "exchanging code", Err: err})
	}
	if token == "" {
		return "", r.fail(&ExchangeError{Reason: "empty access token"})
	}
	if err := r.store.SetToken(ctx, token); err != nil {
		return "", r.fail(&ExchangeError{Reason: "storing token", Err: err})
	}

	r.transition(Done, nil)
	return HomePath, nil
}

func (r *Resolver) fail(err error) error {
	r.logger.Warn("login failed", zap.Error(err))
	r.transition(Failed, err)
	return err
}

func (r *Resolver) transition(s State, err error) {
	r.mu.Lock()
	r.state = s
	r.err = err
	cb := r.OnTransition
	r.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}
