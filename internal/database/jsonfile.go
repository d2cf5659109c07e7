package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"premium-homes/internal/errs"
	"premium-homes/internal/models"
)

const (
	propertiesFile = "properties.json"
	agentsFile     = "agents.json"
	usersFile      = "users.json"
)

// JSONStore keeps each collection in its own JSON file and rewrites the whole
// file on every mutation. Safe for one process; concurrent processes can clobber
// each other's writes.
type JSONStore struct {
	dir string
	mu  sync.Mutex
}

// NewJSONStore opens (and seeds, on first use) a file database in dir.
func NewJSONStore(dir string) (*JSONStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	s := &JSONStore{dir: dir}

	if _, err := os.Stat(s.path(propertiesFile)); errors.Is(err, fs.ErrNotExist) {
		if err := s.write(propertiesFile, SampleProperties()); err != nil {
			return nil, fmt.Errorf("failed to seed properties: %w", err)
		}
	}
	return s, nil
}

func (s *JSONStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// read decodes a collection file; a missing file is an empty collection.
func (s *JSONStore) read(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// write replaces a collection file through a temp file and rename.
func (s *JSONStore) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return os.Rename(tmp.Name(), s.path(name))
}

func (s *JSONStore) properties() ([]models.Property, error) {
	properties := []models.Property{}
	err := s.read(propertiesFile, &properties)
	return properties, err
}

// ListProperties returns every property in file order.
func (s *JSONStore) ListProperties(_ context.Context) ([]models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.properties()
}

// GetProperty finds a property by id.
func (s *JSONStore) GetProperty(_ context.Context, id int) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	properties, err := s.properties()
	if err != nil {
		return nil, err
	}
	for i := range properties {
		if properties[i].ID == id {
			return &properties[i], nil
		}
	}
	return nil, errs.ErrNotFound
}

// CreateProperty appends p, assigning max+1 when p.ID is zero.
func (s *JSONStore) CreateProperty(_ context.Context, p *models.Property) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	properties, err := s.properties()
	if err != nil {
		return nil, err
	}

	created := p.Clone()
	if created.ID == 0 {
		created.ID = nextPropertyID(properties)
	} else {
		for i := range properties {
			if properties[i].ID == created.ID {
				return nil, fmt.Errorf("property %d: %w", created.ID, errs.ErrAlreadyExists)
			}
		}
	}
	if created.Images == nil {
		created.Images = models.StringList{}
	}

	properties = append(properties, created)
	if err := s.write(propertiesFile, properties); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProperty replaces the property with the given id. The id in p is ignored.
func (s *JSONStore) UpdateProperty(_ context.Context, id int, p *models.Property) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	properties, err := s.properties()
	if err != nil {
		return nil, err
	}
	for i := range properties {
		if properties[i].ID != id {
			continue
		}
		updated := p.Clone()
		updated.ID = id
		if updated.Images == nil {
			updated.Images = models.StringList{}
		}
		properties[i] = updated
		if err := s.write(propertiesFile, properties); err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, errs.ErrNotFound
}

// DeleteProperty removes the property with the given id.
func (s *JSONStore) DeleteProperty(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	properties, err := s.properties()
	if err != nil {
		return err
	}
	filtered := properties[:0]
	for _, p := range properties {
		if p.ID != id {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == len(properties) {
		return errs.ErrNotFound
	}
	return s.write(propertiesFile, filtered)
}

func (s *JSONStore) agents() ([]models.Agent, error) {
	agents := []models.Agent{}
	err := s.read(agentsFile, &agents)
	return agents, err
}

// ListAgents returns every agent.
func (s *JSONStore) ListAgents(_ context.Context) ([]models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agents()
}

// GetAgent finds an agent by id.
func (s *JSONStore) GetAgent(_ context.Context, id string) (*models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agents, err := s.agents()
	if err != nil {
		return nil, err
	}
	for i := range agents {
		if agents[i].ID == id {
			return &agents[i], nil
		}
	}
	return nil, errs.ErrNotFound
}

// CreateAgent stores a, generating a uuid when the id is empty.
func (s *JSONStore) CreateAgent(_ context.Context, a *models.Agent) (*models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agents, err := s.agents()
	if err != nil {
		return nil, err
	}
	created := *a
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	for i := range agents {
		if agents[i].ID == created.ID {
			return nil, fmt.Errorf("agent %s: %w", created.ID, errs.ErrAlreadyExists)
		}
	}
	agents = append(agents, created)
	if err := s.write(agentsFile, agents); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateAgent replaces the agent with the given id, keeping the id.
func (s *JSONStore) UpdateAgent(_ context.Context, id string, a *models.Agent) (*models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agents, err := s.agents()
	if err != nil {
		return nil, err
	}
	for i := range agents {
		if agents[i].ID != id {
			continue
		}
		updated := *a
		updated.ID = id
		agents[i] = updated
		if err := s.write(agentsFile, agents); err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, errs.ErrNotFound
}

// DeleteAgent removes the agent with the given id.
func (s *JSONStore) DeleteAgent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	agents, err := s.agents()
	if err != nil {
		return err
	}
	filtered := agents[:0]
	for _, a := range agents {
		if a.ID != id {
			filtered = append(filtered, a)
		}
	}
	if len(filtered) == len(agents) {
		return errs.ErrNotFound
	}
	return s.write(agentsFile, filtered)
}

func (s *JSONStore) users() ([]models.User, error) {
	users := []models.User{}
	err := s.read(usersFile, &users)
	return users, err
}

// GetUserByUsername finds an account by its exact username.
func (s *JSONStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, errs.ErrNotFound
}

// CountUsers returns the number of accounts.
func (s *JSONStore) CountUsers(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users()
	return len(users), err
}

// CreateUser stores u; usernames are unique.
func (s *JSONStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users()
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].Username == u.Username {
			return fmt.Errorf("user %q: %w", u.Username, errs.ErrAlreadyExists)
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	users = append(users, *u)
	return s.write(usersFile, users)
}

// Close is a no-op for the file store.
func (s *JSONStore) Close() error {
	return nil
}
