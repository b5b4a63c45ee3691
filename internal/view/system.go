// Package view loads a system profile and tracks its display state.
package view

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/pkweb/internal/config"
	"github.com/ziadkadry99/pkweb/internal/pkapi"
)

// State is the display state of a system profile.
type State int

const (
	Loading State = iota
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is what a viewer renders at one point in time. Members is
// always sorted and is empty until the system has loaded.
type Snapshot struct {
	State   State
	System  *pkapi.System
	Members []pkapi.Member
	Err     error
}

// Fetcher is the subset of the API client the loader needs.
type Fetcher interface {
	System(ctx context.Context, id string) (*pkapi.System, error)
	Members(ctx context.Context, id string) ([]pkapi.Member, error)
}

// Loader fetches a system and its members for display.
type Loader struct {
	api      Fetcher
	strategy config.MemberStrategy
	logger   *zap.Logger
}

// NewLoader creates a Loader. With MembersEmbedded only the system is
// requested and its embedded member list is used.
func NewLoader(api Fetcher, strategy config.MemberStrategy, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strategy == "" {
		strategy = config.MembersSeparate
	}
	return &Loader{api: api, strategy: strategy, logger: logger.Named("view")}
}

// Load fetches system id and reports every state change to emit, starting
// with Loading before any request is issued. The system and members
// requests run concurrently and may complete in either order. Once ctx is
// done emit is no longer called. Load returns the final snapshot.
func (l *Loader) Load(ctx context.Context, id string, emit func(Snapshot)) Snapshot {
	st := &tracker{ctx: ctx, emit: emit}
	st.publish()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sys, err := l.api.System(gctx, id)
		if err != nil {
			return err
		}
		st.setSystem(sys, l.strategy == config.MembersEmbedded)
		return nil
	})
	if l.strategy == config.MembersSeparate {
		g.Go(func() error {
			members, err := l.api.Members(gctx, id)
			if err != nil {
				if gctx.Err() == nil {
					l.logger.Warn("members failed", zap.String("system", id), zap.Error(err))
				}
				return nil
			}
			st.setMembers(members)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() == nil {
			l.logger.Warn("system failed", zap.String("system", id), zap.Error(err))
		}
		st.fail(err)
	}
	return st.snapshot()
}

// LoadSync fetches everything and returns the final snapshot without
// intermediate updates.
func (l *Loader) LoadSync(ctx context.Context, id string) Snapshot {
	return l.Load(ctx, id, nil)
}

type tracker struct {
	ctx  context.Context
	emit func(Snapshot)

	mu      sync.Mutex
	state   State
	system  *pkapi.System
	members []pkapi.Member
	err     error
}

func (t *tracker) setSystem(sys *pkapi.System, embedded bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.system = sys
	if embedded {
		t.members = sys.Members
	}
	t.state = Loaded
	t.publishLocked()
}

func (t *tracker) setMembers(members []pkapi.Member) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.members = members
	// Cards wait for the system record.
	if t.system != nil {
		t.publishLocked()
	}
}

func (t *tracker) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Failed
	t.err = err
	t.publishLocked()
}

func (t *tracker) publish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.publishLocked()
}

func (t *tracker) publishLocked() {
	if t.emit == nil || t.ctx.Err() != nil {
		return
	}
	t.emit(t.snapshotLocked())
}

func (t *tracker) snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *tracker) snapshotLocked() Snapshot {
	s := Snapshot{State: t.state, System: t.system, Err: t.err}
	if t.system != nil && t.state == Loaded {
		s.Members = SortMembers(t.members)
	} else {
		s.Members = []pkapi.Member{}
	}
	return s
}
