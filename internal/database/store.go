// Package database persists properties, agents and user accounts.
//
// Three backends share the Store interface: flat JSON files (the default),
// MySQL through GORM and PostgreSQL through database/sql with lib/pq.
package database

import (
	"context"
	"fmt"

	"premium-homes/internal/models"
)

// Store is the persistence contract used by the HTTP handlers and jobs.
//
// Property ids are assigned as max(existing)+1 when zero on create and never
// change on update. Methods return errs.ErrNotFound for unknown ids.
type Store interface {
	ListProperties(ctx context.Context) ([]models.Property, error)
	GetProperty(ctx context.Context, id int) (*models.Property, error)
	CreateProperty(ctx context.Context, p *models.Property) (*models.Property, error)
	UpdateProperty(ctx context.Context, id int, p *models.Property) (*models.Property, error)
	DeleteProperty(ctx context.Context, id int) error

	ListAgents(ctx context.Context) ([]models.Agent, error)
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	CreateAgent(ctx context.Context, a *models.Agent) (*models.Agent, error)
	UpdateAgent(ctx context.Context, id string, a *models.Agent) (*models.Agent, error)
	DeleteAgent(ctx context.Context, id string) error

	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CountUsers(ctx context.Context) (int, error)
	CreateUser(ctx context.Context, u *models.User) error

	Close() error
}

// Open builds the store selected by cfg.Type ("json", "mysql" or "postgres").
func Open(cfg Config) (Store, error) {
	switch cfg.Type {
	case "", "json":
		return NewJSONStore(cfg.DataDir)
	case "mysql":
		return NewGormStore(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
	case "postgres":
		return NewPostgresStore(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
	default:
		return nil, fmt.Errorf("unknown database type %q", cfg.Type)
	}
}

// Config selects and configures a backend.
type Config struct {
	Type     string
	DataDir  string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// nextPropertyID returns max(existing ids)+1.
func nextPropertyID(properties []models.Property) int {
	maxID := 0
	for i := range properties {
		if properties[i].ID > maxID {
			maxID = properties[i].ID
		}
	}
	return maxID + 1
}
