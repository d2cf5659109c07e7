package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"premium-homes/internal/database"
)

// Service handles physical deletion of uploaded images that no property or
// agent references any more.
type Service struct {
	store  database.Store
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new cleanup service for the upload directory dir
func NewService(store database.Store, dir string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, dir: dir, logger: logger, now: time.Now}
}

// CleanupConfig holds configuration for cleanup operations
type CleanupConfig struct {
	MinAge           time.Duration // Files younger than this are kept; they may belong to a form still being filled in
	MaxDeletionCount int           // Maximum number of files to delete in one run (safety limit)
	DryRun           bool          // If true, only log what would be deleted without actually deleting
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		MinAge:           24 * time.Hour,
		MaxDeletionCount: 1000,
		DryRun:           false,
	}
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	TargetCount  int       `json:"target_count"`
	DeletedCount int       `json:"deleted_count"`
	SkippedCount int       `json:"skipped_count"`
	ErrorCount   int       `json:"error_count"`
	FreedBytes   int64     `json:"freed_bytes"`
	DryRun       bool      `json:"dry_run"`
	ExecutedAt   time.Time `json:"executed_at"`
	DeletedFiles []string  `json:"deleted_files"`
	Errors       []string  `json:"errors,omitempty"`
}

// Orphan is an upload no record points to.
type Orphan struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// referenced collects the file names used by property images and agent photos.
func (s *Service) referenced(ctx context.Context) (map[string]bool, error) {
	properties, err := s.store.ListProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	agents, err := s.store.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	refs := make(map[string]bool)
	for _, p := range properties {
		for _, u := range p.Images {
			refs[path.Base(u)] = true
		}
	}
	for _, a := range agents {
		if a.Image != "" {
			refs[path.Base(a.Image)] = true
		}
	}
	return refs, nil
}

// FindOrphans lists uploads that nothing references, oldest first.
func (s *Service) FindOrphans(ctx context.Context) ([]Orphan, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read upload dir: %w", err)
	}

	refs, err := s.referenced(ctx)
	if err != nil {
		return nil, err
	}

	var orphans []Orphan
	for _, e := range entries {
		if e.IsDir() || refs[e.Name()] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		orphans = append(orphans, Orphan{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].ModTime.Before(orphans[j].ModTime) })
	return orphans, nil
}

// PhysicallyDelete removes orphaned uploads older than config.MinAge
func (s *Service) PhysicallyDelete(ctx context.Context, config CleanupConfig) (*CleanupResult, error) {
	result := &CleanupResult{
		DryRun:       config.DryRun,
		ExecutedAt:   s.now(),
		DeletedFiles: []string{},
	}

	orphans, err := s.FindOrphans(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-config.MinAge)
	var targets []Orphan
	for _, o := range orphans {
		if o.ModTime.After(cutoff) {
			result.SkippedCount++
			continue
		}
		targets = append(targets, o)
	}
	result.TargetCount = len(targets)

	if result.TargetCount == 0 {
		s.logger.Info("no orphaned uploads found")
		return result, nil
	}

	// Safety check: abort if too many files would be deleted
	if config.MaxDeletionCount > 0 && result.TargetCount > config.MaxDeletionCount {
		return nil, fmt.Errorf("safety check failed: %d files exceed max deletion limit of %d",
			result.TargetCount, config.MaxDeletionCount)
	}

	s.logger.Info("starting upload cleanup",
		zap.Int("targets", result.TargetCount), zap.Bool("dry_run", config.DryRun))

	for _, o := range targets {
		if config.DryRun {
			s.logger.Info("[DRY-RUN] would delete upload", zap.String("file", o.Name), zap.Time("modified", o.ModTime))
			result.DeletedFiles = append(result.DeletedFiles, o.Name)
			result.DeletedCount++
			result.FreedBytes += o.Size
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, o.Name)); err != nil {
			errMsg := fmt.Sprintf("Failed to delete %s: %v", o.Name, err)
			s.logger.Error("upload cleanup", zap.String("file", o.Name), zap.Error(err))
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
			continue
		}
		result.DeletedFiles = append(result.DeletedFiles, o.Name)
		result.DeletedCount++
		result.FreedBytes += o.Size
	}

	s.logger.Info("upload cleanup completed",
		zap.Int("deleted", result.DeletedCount),
		zap.Int("targets", result.TargetCount),
		zap.Int("errors", result.ErrorCount),
		zap.Bool("dry_run", config.DryRun),
	)
	return result, nil
}
