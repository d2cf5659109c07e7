// Package auth issues and verifies access tokens for the admin area.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"premium-homes/internal/database"
	"premium-homes/internal/errs"
	"premium-homes/internal/models"
)

// Credentials provisioned on the first login against an empty account table.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

// Service implements login, registration and token verification.
type Service struct {
	store  database.Store
	tokens *TokenManager
	logger *zap.Logger
}

func NewService(store database.Store, tokens *TokenManager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, tokens: tokens, logger: logger}
}

// Tokens returns the token manager used by the service.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// Login checks credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: Username and password are required", errs.ErrValidation)
	}

	if err := s.ensureDefaultAdmin(ctx); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("%w: Invalid credentials", errs.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, req.Password) {
		return nil, fmt.Errorf("%w: Invalid credentials", errs.ErrUnauthorized)
	}

	return s.respond(ctx, user)
}

// Register creates an agent profile and an agent account bound to it.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: Username and password are required", errs.ErrValidation)
	}
	agent := &models.Agent{
		Name:   strings.TrimSpace(req.Name),
		Title:  req.Title,
		Email:  strings.TrimSpace(strings.ToLower(req.Email)),
		Mobile: req.Mobile,
		City:   req.City,
		Image:  req.Image,
	}
	if err := agent.Validate(); err != nil {
		return nil, err
	}
	// the first account created must not lock out the default admin
	if err := s.ensureDefaultAdmin(ctx); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("%w: Username already exists", errs.ErrAlreadyExists)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateAgent(ctx, agent)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         models.RoleAgent,
		AgentID:      created.ID,
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// keep the agent table free of profiles nobody can sign in to
		if delErr := s.store.DeleteAgent(ctx, created.ID); delErr != nil {
			s.logger.Warn("failed to remove agent after user creation error",
				zap.String("agent_id", created.ID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("registered agent account",
		zap.String("username", user.Username), zap.String("agent_id", created.ID))

	resp, err := s.respond(ctx, user)
	if err != nil {
		return nil, err
	}
	resp.Agent = created
	return resp, nil
}

// Verify parses tokenString and returns the user it was issued to.
func (s *Service) Verify(tokenString string) (*models.VerifyResponse, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	return &models.VerifyResponse{Valid: true, User: claims.User()}, nil
}

func (s *Service) respond(_ context.Context, user *models.User) (*models.AuthResponse, error) {
	info := user.Descriptor()
	token, err := s.tokens.Issue(info)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: info}, nil
}

// ensureDefaultAdmin creates admin/admin123 when no account exists yet.
func (s *Service) ensureDefaultAdmin(ctx context.Context) error {
	n, err := s.store.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := HashPassword(DefaultAdminPassword)
	if err != nil {
		return err
	}
	admin := &models.User{
		Username:     DefaultAdminUsername,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateUser(ctx, admin); err != nil && !errors.Is(err, errs.ErrAlreadyExists) {
		return fmt.Errorf("create default admin: %w", err)
	}
	s.logger.Warn("provisioned default admin account; change its password",
		zap.String("username", DefaultAdminUsername))
	return nil
}
