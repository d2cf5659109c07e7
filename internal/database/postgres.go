package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"premium-homes/internal/errs"
	"premium-homes/internal/models"
)

const pqUniqueViolation = "23505"

// PostgresStore talks to PostgreSQL through database/sql and lib/pq.
type PostgresStore struct {
	conn *sql.DB
}

func NewPostgresStore(host, port, user, password, dbname, sslmode string) (*PostgresStore, error) {
	if sslmode == "" {
		sslmode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	s := &PostgresStore{conn: conn}
	if err := s.InitSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	return s.conn.Close()
}

// InitSchema creates the tables if they don't exist
func (s *PostgresStore) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS properties (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION NOT NULL DEFAULT 0,
		currency VARCHAR(8) NOT NULL DEFAULT '',
		area DOUBLE PRECISION NOT NULL DEFAULT 0,
		bedrooms INTEGER NOT NULL DEFAULT 0,
		bathrooms INTEGER NOT NULL DEFAULT 0,
		property_type VARCHAR(20) NOT NULL,
		transaction_type VARCHAR(10) NOT NULL,
		images TEXT NOT NULL DEFAULT '[]',
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		agent_id VARCHAR(36) NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_properties_price ON properties(price);
	CREATE INDEX IF NOT EXISTS idx_properties_type ON properties(property_type, transaction_type);

	CREATE TABLE IF NOT EXISTS agents (
		id VARCHAR(36) PRIMARY KEY,
		name TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		mobile TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		properties_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role VARCHAR(20) NOT NULL,
		agent_id VARCHAR(36) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	`
	_, err := s.conn.Exec(query)
	return err
}

func pqTranslate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errs.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%w: %s", errs.ErrAlreadyExists, pqErr.Message)
	}
	return err
}

const propertyColumns = `id, title, location, address, description, price, currency, area,
	bedrooms, bathrooms, property_type, transaction_type, images, featured, agent_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID, &p.Title, &p.Location, &p.Address, &p.Description, &p.Price, &p.Currency, &p.Area,
		&p.Bedrooms, &p.Bathrooms, &p.PropertyType, &p.TransactionType, &p.Images, &p.Featured, &p.AgentID,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProperties returns all properties ordered by id
func (s *PostgresStore) ListProperties(ctx context.Context) ([]models.Property, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+propertyColumns+` FROM properties ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	properties := []models.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, *p)
	}
	return properties, rows.Err()
}

// GetProperty retrieves a property by ID
func (s *PostgresStore) GetProperty(ctx context.Context, id int) (*models.Property, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	p, err := scanProperty(row)
	if err != nil {
		return nil, pqTranslate(err)
	}
	return p, nil
}

// CreateProperty inserts p. A zero id is replaced by max(id)+1 under a table lock.
func (s *PostgresStore) CreateProperty(ctx context.Context, p *models.Property) (*models.Property, error) {
	created := p.Clone()
	if created.Images == nil {
		created.Images = models.StringList{}
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE properties IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, err
	}
	if created.ID == 0 {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM properties`).Scan(&created.ID); err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO properties (`+propertyColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		created.ID, created.Title, created.Location, created.Address, created.Description,
		created.Price, created.Currency, created.Area, created.Bedrooms, created.Bathrooms,
		created.PropertyType, created.TransactionType, created.Images, created.Featured, created.AgentID,
	)
	if err != nil {
		return nil, pqTranslate(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProperty overwrites every column of the row with the given id.
func (s *PostgresStore) UpdateProperty(ctx context.Context, id int, p *models.Property) (*models.Property, error) {
	updated := p.Clone()
	updated.ID = id
	if updated.Images == nil {
		updated.Images = models.StringList{}
	}

	res, err := s.conn.ExecContext(ctx, `
	UPDATE properties SET
		title = $2, location = $3, address = $4, description = $5, price = $6,
		currency = $7, area = $8, bedrooms = $9, bathrooms = $10, property_type = $11,
		transaction_type = $12, images = $13, featured = $14, agent_id = $15
	WHERE id = $1`,
		updated.ID, updated.Title, updated.Location, updated.Address, updated.Description,
		updated.Price, updated.Currency, updated.Area, updated.Bedrooms, updated.Bathrooms,
		updated.PropertyType, updated.TransactionType, updated.Images, updated.Featured, updated.AgentID,
	)
	if err != nil {
		return nil, pqTranslate(err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProperty removes a property by id
func (s *PostgresStore) DeleteProperty(ctx context.Context, id int) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

const agentColumns = `id, name, title, email, mobile, city, image, properties_count`

func scanAgent(row rowScanner) (*models.Agent, error) {
	var a models.Agent
	if err := row.Scan(&a.ID, &a.Name, &a.Title, &a.Email, &a.Mobile, &a.City, &a.Image, &a.PropertiesCount); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) ListAgents(ctx context.Context) ([]models.Agent, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := []models.Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

func (s *PostgresStore) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	a, err := scanAgent(s.conn.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id))
	if err != nil {
		return nil, pqTranslate(err)
	}
	return a, nil
}

func (s *PostgresStore) CreateAgent(ctx context.Context, a *models.Agent) (*models.Agent, error) {
	created := *a
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	_, err := s.conn.ExecContext(ctx, `
	INSERT INTO agents (`+agentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		created.ID, created.Name, created.Title, created.Email, created.Mobile,
		created.City, created.Image, created.PropertiesCount,
	)
	if err != nil {
		return nil, pqTranslate(err)
	}
	return &created, nil
}

func (s *PostgresStore) UpdateAgent(ctx context.Context, id string, a *models.Agent) (*models.Agent, error) {
	updated := *a
	updated.ID = id
	res, err := s.conn.ExecContext(ctx, `
	UPDATE agents SET name = $2, title = $3, email = $4, mobile = $5, city = $6, image = $7, properties_count = $8
	WHERE id = $1`,
		updated.ID, updated.Name, updated.Title, updated.Email, updated.Mobile,
		updated.City, updated.Image, updated.PropertiesCount,
	)
	if err != nil {
		return nil, pqTranslate(err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *PostgresStore) DeleteAgent(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.conn.QueryRowContext(ctx, `
	SELECT id, username, password_hash, role, agent_id, created_at FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.AgentID, &u.CreatedAt)
	if err != nil {
		return nil, pqTranslate(err)
	}
	return &u, nil
}

func (s *PostgresStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := s.conn.ExecContext(ctx, `
	INSERT INTO users (id, username, password_hash, role, agent_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.PasswordHash, u.Role, u.AgentID, u.CreatedAt,
	)
	return pqTranslate(err)
}
