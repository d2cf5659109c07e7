package state

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"premium-homes/internal/errs"
	"premium-homes/internal/models"
)

// PropertyAPI is the remote side of the listing collection. *client.Client
// satisfies it.
type PropertyAPI interface {
	ListProperties(ctx context.Context) ([]models.Property, error)
	GetProperty(ctx context.Context, id int) (*models.Property, error)
	CreateProperty(ctx context.Context, p *models.Property) (*models.Property, error)
	UpdateProperty(ctx context.Context, id int, p *models.Property) (*models.Property, error)
	DeleteProperty(ctx context.Context, id int) error
}

// Alerter shows a blocking notification to the user.
type Alerter interface {
	Alert(msg string)
}

// AlertFunc adapts a func to Alerter.
type AlertFunc func(msg string)

func (f AlertFunc) Alert(msg string) { f(msg) }

// PropertyController runs listing requests and records their outcome in a Store.
type PropertyController struct {
	api     PropertyAPI
	store   *Store
	alerter Alerter
	logger  *zap.Logger

	wg sync.WaitGroup
}

func NewPropertyController(api PropertyAPI, store *Store, alerter Alerter, logger *zap.Logger) *PropertyController {
	if logger == nil {
		logger = zap.NewNop()
	}
	if alerter == nil {
		alerter = AlertFunc(func(string) {})
	}
	return &PropertyController{api: api, store: store, alerter: alerter, logger: logger}
}

// Store returns the state container the controller writes to.
func (c *PropertyController) Store() *Store { return c.store }

// Fetch loads every listing. Only the most recently started fetch may
// change the collection; older results are discarded when they arrive.
func (c *PropertyController) Fetch(ctx context.Context) error {
	gen := c.store.Dispatch(FetchStarted{}).Generation
	return c.finishFetch(ctx, gen)
}

func (c *PropertyController) finishFetch(ctx context.Context, gen uint64) error {
	properties, err := c.api.ListProperties(ctx)
	if err != nil {
		msg := errs.Message(err)
		if msg == "" {
			msg = "Failed to fetch properties"
		}
		c.logger.Warn("fetch properties failed", zap.Uint64("generation", gen), zap.Error(err))
		c.store.Dispatch(FetchFailed{Generation: gen, Message: msg})
		return err
	}
	c.store.Dispatch(FetchSucceeded{Generation: gen, Properties: properties})
	return nil
}

// refetch starts a fetch in the background. FetchStarted is dispatched
// before it returns so the new generation supersedes any fetch in flight.
func (c *PropertyController) refetch(ctx context.Context) {
	gen := c.store.Dispatch(FetchStarted{}).Generation
	ctx = context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_ = c.finishFetch(ctx, gen)
	}()
}

// Wait blocks until every background re-fetch has finished.
func (c *PropertyController) Wait() {
	c.wg.Wait()
}

// Create sends p and, on success, re-fetches and shows the returned listing
// right away. Failures are alerted and leave the collection untouched.
func (c *PropertyController) Create(ctx context.Context, p *models.Property) (*models.Property, error) {
	if err := p.Validate(); err != nil {
		c.fail("create", err)
		return nil, err
	}
	created, err := c.api.CreateProperty(ctx, p)
	if err != nil {
		c.fail("create", err)
		return nil, err
	}
	c.refetch(ctx)
	c.store.Dispatch(PropertyAdded{Property: *created})
	return created, nil
}

// Update sends p under its own id.
func (c *PropertyController) Update(ctx context.Context, p *models.Property) (*models.Property, error) {
	if err := p.Validate(); err != nil {
		c.fail("update", err)
		return nil, err
	}
	updated, err := c.api.UpdateProperty(ctx, p.ID, p)
	if err != nil {
		c.fail("update", err)
		return nil, err
	}
	c.refetch(ctx)
	c.store.Dispatch(PropertyUpdated{Property: *updated})
	return updated, nil
}

// Delete drops the listing locally before the server answers. A failed call
// is alerted but the local removal stays until the next successful fetch.
func (c *PropertyController) Delete(ctx context.Context, id int) error {
	c.store.Dispatch(PropertyDeleted{ID: id})
	if err := c.api.DeleteProperty(ctx, id); err != nil {
		c.fail("delete", err)
		return err
	}
	c.refetch(ctx)
	return nil
}

// Select loads one listing into Selected.
func (c *PropertyController) Select(ctx context.Context, id int) (*models.Property, error) {
	p, err := c.api.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store.Dispatch(PropertySelected{Property: *p})
	return p, nil
}

// ClearSelection empties Selected.
func (c *PropertyController) ClearSelection() {
	c.store.Dispatch(SelectionCleared{})
}

func (c *PropertyController) fail(op string, err error) {
	c.logger.Error("property request failed", zap.String("op", op), zap.Error(err))
	c.alerter.Alert(fmt.Sprintf("Failed to %s property: %s", op, errs.Message(err)))
}
