package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"premium-homes/internal/cleanup"
	"premium-homes/internal/config"
	"premium-homes/internal/database"
	"premium-homes/internal/models"
)

// Job names accepted by RunNow.
const (
	JobAgentCounts   = "agent_counts"
	JobReindex       = "reindex"
	JobUploadCleanup = "upload_cleanup"
)

// Reindexer rebuilds the search index from a full listing.
type Reindexer interface {
	Reindex(properties []models.Property) error
}

// Scheduler handles periodic maintenance tasks
type Scheduler struct {
	cron      *cron.Cron
	store     database.Store
	indexer   Reindexer
	cleanup   *cleanup.Service
	config    config.SchedulerConfig
	logger    *zap.Logger
	jobs      map[string]func(context.Context) error
	mu        sync.Mutex
	lastRuns  map[string]JobStatus
	isRunning bool
}

// JobStatus records the outcome of the last run of a job
type JobStatus struct {
	LastRun  time.Time     `json:"last_run"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// NewScheduler creates a new scheduler. indexer may be nil when search is not configured.
func NewScheduler(store database.Store, indexer Reindexer, cleanupSvc *cleanup.Service, cfg config.SchedulerConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := time.Local
	if cfg.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Timezone); err == nil {
			loc = l
		} else {
			logger.Warn("unknown scheduler timezone, using local", zap.String("timezone", cfg.Timezone))
		}
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		store:    store,
		indexer:  indexer,
		cleanup:  cleanupSvc,
		config:   cfg,
		logger:   logger,
		lastRuns: make(map[string]JobStatus),
	}
	s.jobs = map[string]func(context.Context) error{
		JobAgentCounts:   s.refreshAgentCounts,
		JobReindex:       s.reindex,
		JobUploadCleanup: s.cleanupUploads,
	}
	return s
}

// Start registers every job with a non-empty spec and starts the cron loop
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("scheduler disabled in configuration")
		return nil
	}

	specs := map[string]string{
		JobAgentCounts:   s.config.AgentCountsSpec,
		JobReindex:       s.config.ReindexSpec,
		JobUploadCleanup: s.config.UploadCleanupSpec,
	}
	for name, spec := range specs {
		if spec == "" {
			continue
		}
		if name == JobReindex && s.indexer == nil {
			continue
		}
		if name == JobUploadCleanup && s.cleanup == nil {
			continue
		}
		name := name
		if _, err := s.cron.AddFunc(spec, func() {
			if err := s.RunNow(context.Background(), name); err != nil {
				s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("invalid cron spec %q for %s: %w", spec, name, err)
		}
		s.logger.Info("scheduled job", zap.String("job", name), zap.String("spec", spec))
	}

	s.cron.Start()
	s.isRunning = true
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		s.logger.Info("scheduler stopped")
	}
}

// RunNow executes the named job synchronously and records its status.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	start := time.Now()
	err := job(ctx)

	status := JobStatus{LastRun: start, Duration: time.Since(start)}
	if err != nil {
		status.Error = err.Error()
	}
	s.mu.Lock()
	s.lastRuns[name] = status
	s.mu.Unlock()
	return err
}

// Status returns the last recorded run of every job that ran at least once.
func (s *Scheduler) Status() map[string]JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]JobStatus, len(s.lastRuns))
	for k, v := range s.lastRuns {
		out[k] = v
	}
	return out
}

func (s *Scheduler) refreshAgentCounts(ctx context.Context) error {
	n, err := database.RefreshAgentCounts(ctx, s.store)
	if err != nil {
		return err
	}
	s.logger.Info("agent counts refreshed", zap.Int("updated", n))
	return nil
}

func (s *Scheduler) reindex(ctx context.Context) error {
	if s.indexer == nil {
		return fmt.Errorf("search index not configured")
	}
	properties, err := s.store.ListProperties(ctx)
	if err != nil {
		return err
	}
	if err := s.indexer.Reindex(properties); err != nil {
		return err
	}
	s.logger.Info("search index rebuilt", zap.Int("documents", len(properties)))
	return nil
}

func (s *Scheduler) cleanupUploads(ctx context.Context) error {
	if s.cleanup == nil {
		return fmt.Errorf("upload cleanup not configured")
	}
	_, err := s.cleanup.PhysicallyDelete(ctx, cleanup.DefaultCleanupConfig())
	return err
}
