package state

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"premium-homes/internal/errs"
	"premium-homes/internal/models"
)

// SessionStatus is where the login state machine currently is.
type SessionStatus string

const (
	SessionUnauthenticated SessionStatus = "unauthenticated"
	SessionAuthenticating  SessionStatus = "authenticating"
	SessionOptimistic      SessionStatus = "optimistic"
	SessionVerified        SessionStatus = "verified"
	SessionRevoked         SessionStatus = "revoked"
)

// SessionState is a snapshot of the session controller.
type SessionState struct {
	Status SessionStatus
	User   *models.UserInfo
	Agent  *models.Agent
	Token  string
	Error  string
}

// Authenticated reports whether the UI should treat the user as logged in.
func (s SessionState) Authenticated() bool {
	return s.Status == SessionOptimistic || s.Status == SessionVerified
}

// SessionAPI is the remote side of authentication. *client.Client satisfies it.
type SessionAPI interface {
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Verify(ctx context.Context) (*models.VerifyResponse, error)
}

// SessionController restores, verifies and persists the login session.
type SessionController struct {
	api     SessionAPI
	storage SessionStorage
	logger  *zap.Logger

	mu    sync.Mutex
	state SessionState
	wg    sync.WaitGroup
}

func NewSessionController(api SessionAPI, storage SessionStorage, logger *zap.Logger) *SessionController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionController{
		api:     api,
		storage: storage,
		logger:  logger,
		state:   SessionState{Status: SessionUnauthenticated},
	}
}

// State returns the current session snapshot.
func (c *SessionController) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Token is the bearer token for API calls, empty when logged out.
func (c *SessionController) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Authenticated() {
		return ""
	}
	return c.state.Token
}

func (c *SessionController) set(s SessionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Bootstrap restores a stored session. A complete record makes the session
// usable immediately while the token is verified in the background; call
// Wait to block until that check is done.
func (c *SessionController) Bootstrap(ctx context.Context) SessionState {
	rec, err := c.storage.Load()
	switch {
	case errors.Is(err, ErrNoSession):
		c.set(SessionState{Status: SessionUnauthenticated})
		return c.State()
	case err != nil || !rec.Valid():
		if err != nil {
			c.logger.Warn("discarding unreadable session", zap.Error(err))
		}
		c.purge()
		c.set(SessionState{Status: SessionUnauthenticated})
		return c.State()
	}

	user := *rec.User
	c.set(SessionState{Status: SessionOptimistic, User: &user, Token: rec.Token})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.verify(context.WithoutCancel(ctx), rec.Token)
	}()
	return c.State()
}

func (c *SessionController) verify(ctx context.Context, token string) {
	resp, err := c.api.Verify(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	// a login or logout happened meanwhile
	if c.state.Token != token || c.state.Status != SessionOptimistic {
		return
	}
	if err != nil || !resp.Valid {
		c.logger.Info("stored session rejected", zap.Error(err))
		if cerr := c.storage.Clear(); cerr != nil {
			c.logger.Warn("failed to clear session", zap.Error(cerr))
		}
		c.state = SessionState{Status: SessionRevoked}
		return
	}
	c.state.Status = SessionVerified
	if resp.User.Username != "" {
		u := resp.User
		c.state.User = &u
	}
}

// Wait blocks until a background verification has finished.
func (c *SessionController) Wait() {
	c.wg.Wait()
}

// Login signs in and stores the session on success.
func (c *SessionController) Login(ctx context.Context, username, password string) error {
	c.set(SessionState{Status: SessionAuthenticating})
	resp, err := c.api.Login(ctx, username, password)
	return c.finish(resp, err, "Failed to login")
}

// Register creates an agent account and signs in as it.
func (c *SessionController) Register(ctx context.Context, req models.RegisterRequest) error {
	c.set(SessionState{Status: SessionAuthenticating})
	resp, err := c.api.Register(ctx, req)
	return c.finish(resp, err, "Failed to register")
}

func (c *SessionController) finish(resp *models.AuthResponse, err error, fallback string) error {
	if err != nil {
		msg := errs.Message(err)
		if msg == "" {
			msg = fallback
		}
		c.set(SessionState{Status: SessionUnauthenticated, Error: msg})
		return err
	}

	user := resp.User
	if err := c.storage.Save(SessionRecord{IsAuthenticated: true, User: &user, Token: resp.Token}); err != nil {
		c.logger.Warn("failed to persist session", zap.Error(err))
	}
	c.set(SessionState{Status: SessionVerified, User: &user, Agent: resp.Agent, Token: resp.Token})
	return nil
}

// Logout forgets the session locally. Tokens expire on their own, so the
// server is not told.
func (c *SessionController) Logout() {
	c.purge()
	c.set(SessionState{Status: SessionUnauthenticated})
}

func (c *SessionController) purge() {
	if err := c.storage.Clear(); err != nil {
		c.logger.Warn("failed to clear session", zap.Error(err))
	}
}
