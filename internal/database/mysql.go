package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"premium-homes/internal/errs"
	"premium-homes/internal/models"
)

// GormStore keeps everything in MySQL through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore connects to MySQL and migrates the schema.
func NewGormStore(host, port, user, password, dbname string) (*GormStore, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	s := NewGormStoreFromDB(db)
	if err := s.InitSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// NewGormStoreFromDB wraps an existing gorm.DB instance
func NewGormStoreFromDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB returns the underlying gorm.DB instance
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// InitSchema creates tables using GORM AutoMigrate
func (s *GormStore) InitSchema() error {
	return s.db.AutoMigrate(
		&models.Property{},
		&models.Agent{},
		&models.User{},
	)
}

// Close closes the connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", errs.ErrAlreadyExists, err)
	default:
		return err
	}
}

// ListProperties returns all properties ordered by id
func (s *GormStore) ListProperties(ctx context.Context) ([]models.Property, error) {
	properties := []models.Property{}
	err := s.db.WithContext(ctx).Order("id ASC").Find(&properties).Error
	return properties, translate(err)
}

// GetProperty retrieves a property by ID
func (s *GormStore) GetProperty(ctx context.Context, id int) (*models.Property, error) {
	var property models.Property
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		return nil, translate(err)
	}
	return &property, nil
}

// CreateProperty inserts p, assigning max(id)+1 inside a transaction when p.ID is zero.
func (s *GormStore) CreateProperty(ctx context.Context, p *models.Property) (*models.Property, error) {
	created := p.Clone()
	if created.Images == nil {
		created.Images = models.StringList{}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if created.ID == 0 {
			var maxID int
			if err := tx.Model(&models.Property{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
				return err
			}
			created.ID = maxID + 1
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &created, nil
}

// UpdateProperty replaces the row with the given id, keeping the id.
func (s *GormStore) UpdateProperty(ctx context.Context, id int, p *models.Property) (*models.Property, error) {
	updated := p.Clone()
	updated.ID = id
	if updated.Images == nil {
		updated.Images = models.StringList{}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Property
		if err := tx.Where("id = ?", id).First(&existing).Error; err != nil {
			return err
		}
		return tx.Save(&updated).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

// DeleteProperty removes a property by id
func (s *GormStore) DeleteProperty(ctx context.Context, id int) error {
	result := s.db.WithContext(ctx).Delete(&models.Property{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListAgents returns all agents ordered by name
func (s *GormStore) ListAgents(ctx context.Context) ([]models.Agent, error) {
	agents := []models.Agent{}
	err := s.db.WithContext(ctx).Order("name ASC").Find(&agents).Error
	return agents, translate(err)
}

// GetAgent retrieves an agent by ID
func (s *GormStore) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	var agent models.Agent
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&agent).Error; err != nil {
		return nil, translate(err)
	}
	return &agent, nil
}

// CreateAgent inserts a, generating a uuid when the id is empty
func (s *GormStore) CreateAgent(ctx context.Context, a *models.Agent) (*models.Agent, error) {
	created := *a
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		return nil, translate(err)
	}
	return &created, nil
}

// UpdateAgent replaces the agent with the given id
func (s *GormStore) UpdateAgent(ctx context.Context, id string, a *models.Agent) (*models.Agent, error) {
	updated := *a
	updated.ID = id

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Agent
		if err := tx.Where("id = ?", id).First(&existing).Error; err != nil {
			return err
		}
		return tx.Save(&updated).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

// DeleteAgent removes an agent by id
func (s *GormStore) DeleteAgent(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Agent{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// GetUserByUsername retrieves an account by username
func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// CountUsers returns the number of accounts
func (s *GormStore) CountUsers(ctx context.Context) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return int(n), translate(err)
}

// CreateUser inserts u
func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(u).Error)
}
