package reports

import (
	"context"
	"strings"

	"github.com/sadopc/askfin/internal/model"
)

// Source is a session that may hold a question worth saving.
type Source interface {
	// SavableQuery returns the question of a successful session.
	SavableQuery() (string, bool)
}

// Composer is the "save report" input surface. It is not safe for
// concurrent use; callers drive it from one event loop.
type Composer struct {
	store *Store

	open bool
	name string
	err  error
}

func NewComposer(s *Store) *Composer {
	return &Composer{store: s}
}

func (c *Composer) Open()            { c.open = true; c.err = nil }
func (c *Composer) Close()           { c.open = false }
func (c *Composer) IsOpen() bool     { return c.open }
func (c *Composer) Name() string     { return c.name }
func (c *Composer) SetName(n string) { c.name = n }
func (c *Composer) Err() error       { return c.err }

// Prepare validates the composer against src without touching the gateway.
func (c *Composer) Prepare(src Source) (name, query string, err error) {
	query, ok := src.SavableQuery()
	if !ok {
		c.err = &model.ValidationError{Field: "report", Reason: "needs a successful query"}
		return "", "", c.err
	}
	name = strings.TrimSpace(c.name)
	if name == "" {
		c.err = &model.ValidationError{Field: "name"}
		return "", "", c.err
	}
	return name, query, nil
}

// Complete applies the outcome of a create. Once the report exists the
// surface closes and the name is cleared, even if err reports a failed
// re-fetch; otherwise the name is kept for a retry.
func (c *Composer) Complete(created *model.SavedReport, err error) {
	if created == nil {
		c.err = err
		return
	}
	c.open = false
	c.name = ""
	c.err = nil
}

// Save runs Prepare, the create call and Complete in one step.
func (c *Composer) Save(ctx context.Context, src Source) (*model.SavedReport, error) {
	name, query, err := c.Prepare(src)
	if err != nil {
		return nil, err
	}
	created, err := c.store.Create(ctx, name, query)
	c.Complete(created, err)
	return created, err
}
