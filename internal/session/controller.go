// Package session drives query submission. A Controller owns one active
// session; every submission gets a sequence token and only the outcome of
// the most recently initiated submission is ever applied.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sadopc/askfin/internal/model"
)

// Phase is the lifecycle position of the active session.
type Phase int

const (
	Idle Phase = iota
	Loading
	Success
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Asker is the gateway operation a session needs.
type Asker interface {
	Ask(ctx context.Context, query string) (*model.QueryResult, error)
}

// State is a snapshot of the session. Result is set only in Success,
// ErrMessage only in Failed.
type State struct {
	Seq        uint64
	Query      string
	Phase      Phase
	Result     *model.QueryResult
	Err        error
	ErrMessage string
	Elapsed    time.Duration
}

// SavableQuery returns the question behind a successful session.
func (s State) SavableQuery() (string, bool) {
	if s.Phase != Success || s.Result == nil {
		return "", false
	}
	return s.Query, true
}

// Request is an initiated submission awaiting its outcome.
type Request struct {
	Seq     uint64
	Query   string
	started time.Time
}

// Outcome is the gateway's answer to a Request.
type Outcome struct {
	Request Request
	Result  *model.QueryResult
	Err     error
}

// Controller is safe for concurrent use, although the presentation layer
// normally drives it from a single event loop.
type Controller struct {
	asker  Asker
	logger zerolog.Logger

	// notifyMu orders deliveries to subscribers.
	notifyMu sync.Mutex

	mu       sync.Mutex
	seq      uint64
	state    State
	deepLink string
	subs     map[int]func(State)
	nextSub  int
}

func New(a Asker, logger zerolog.Logger) *Controller {
	return &Controller{
		asker:  a,
		logger: logger,
		subs:   make(map[int]func(State)),
	}
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to be called with new states, in order. A state
// that was already superseded when its turn came is skipped, so fn never
// sees an older submission after a newer one. fn must not call back into
// the Controller. The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Begin validates query and starts a new submission, superseding any
// request still in flight. Nothing changes on a validation error.
func (c *Controller) Begin(query string) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, &model.ValidationError{Field: "query"}
	}

	c.mu.Lock()
	c.seq++
	req := Request{Seq: c.seq, Query: query, started: time.Now()}
	c.state = State{Seq: req.Seq, Query: query, Phase: Loading}
	snap := c.state
	c.mu.Unlock()

	c.logger.Debug().Uint64("seq", req.Seq).Str("query", query).Msg("submission started")
	c.notify(snap)
	return req, nil
}

// Run performs the gateway call for req. It does not touch session state.
func (c *Controller) Run(ctx context.Context, req Request) Outcome {
	res, err := c.asker.Ask(ctx, req.Query)
	return Outcome{Request: req, Result: res, Err: err}
}

// Resolve applies out if it belongs to the latest submission and reports
// whether it was applied. Stale outcomes are discarded.
func (c *Controller) Resolve(out Outcome) bool {
	c.mu.Lock()
	if out.Request.Seq != c.seq {
		latest := c.seq
		c.mu.Unlock()
		c.logger.Debug().
			Uint64("seq", out.Request.Seq).
			Uint64("latest", latest).
			Msg("stale response discarded")
		return false
	}

	next := State{
		Seq:     out.Request.Seq,
		Query:   out.Request.Query,
		Elapsed: time.Since(out.Request.started),
	}
	switch {
	case out.Err != nil:
		next.Phase = Failed
		next.Err = out.Err
		next.ErrMessage = model.Message(out.Err)
	case out.Result == nil:
		next.Phase = Success
		next.Result = &model.QueryResult{}
	default:
		next.Phase = Success
		next.Result = out.Result
	}
	c.state = next
	c.mu.Unlock()

	ev := c.logger.Info().
		Uint64("seq", next.Seq).
		Str("phase", next.Phase.String()).
		Dur("elapsed", next.Elapsed)
	if next.Result != nil {
		ev = ev.Int("rows", len(next.Result.Rows))
	}
	if next.Err != nil {
		ev = ev.Err(next.Err)
	}
	ev.Msg("submission resolved")

	c.notify(next)
	return true
}

// Submit runs a whole submission and returns the state it leaves behind,
// which may belong to a newer submission started meanwhile.
func (c *Controller) Submit(ctx context.Context, query string) (State, error) {
	req, err := c.Begin(query)
	if err != nil {
		return c.State(), err
	}
	c.Resolve(c.Run(ctx, req))
	return c.State(), nil
}

// BeginDeepLink starts a submission for a deep-link value unless that same
// value was already consumed. ok is false when nothing was started.
func (c *Controller) BeginDeepLink(param string) (req Request, ok bool, err error) {
	c.mu.Lock()
	if param == "" || param == c.deepLink {
		c.mu.Unlock()
		return Request{}, false, nil
	}
	c.deepLink = param
	c.mu.Unlock()

	req, err = c.Begin(param)
	if err != nil {
		return Request{}, false, err
	}
	return req, true, nil
}

// SubmitDeepLink behaves like Submit, at most once per parameter value.
func (c *Controller) SubmitDeepLink(ctx context.Context, param string) (State, bool, error) {
	req, ok, err := c.BeginDeepLink(param)
	if !ok {
		return c.State(), false, err
	}
	c.Resolve(c.Run(ctx, req))
	return c.State(), true, nil
}

// notify delivers s unless the session has moved on, in which case the
// notify call for the newer state delivers that one instead.
func (c *Controller) notify(s State) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if cur := c.state; cur.Seq != s.Seq || cur.Phase != s.Phase {
		c.mu.Unlock()
		return
	}
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
