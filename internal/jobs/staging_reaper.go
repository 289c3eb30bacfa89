package jobs

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"ConsolidaFin/api/upload"
	"ConsolidaFin/internal/config"
)

// StagingReaperService periodically drops staging tables whose jobs were
// abandoned: uploaded but never finalized, or orphaned by a crash between
// staging and cleanup. The creation timestamp embedded in each table name
// decides whether it has outlived the TTL.
type StagingReaperService struct {
	pool     *pgxpool.Pool
	cron     *cron.Cron
	schedule string
	ttl      time.Duration
}

func NewStagingReaperService(cfg map[string]interface{}, pool *pgxpool.Pool) *StagingReaperService {
	schedule, _ := cfg["schedule"].(string)
	if schedule == "" {
		schedule = config.DefaultReaperSchedule
	}
	ttlHours, _ := cfg["staging_ttl_hours"].(int)
	if ttlHours <= 0 {
		ttlHours = config.DefaultStagingTTLHrs
	}
	return &StagingReaperService{
		pool:     pool,
		schedule: schedule,
		ttl:      time.Duration(ttlHours) * time.Hour,
	}
}

func (s *StagingReaperService) Name() string { return "housekeeping" }

func (s *StagingReaperService) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[StagingReaper] Started with schedule %q, TTL %s", s.schedule, s.ttl)
	return nil
}

func (s *StagingReaperService) Stop() error {
	if s.cron != nil {
		s.cron.Stop()
	}
	return nil
}

func (s *StagingReaperService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT tablename FROM pg_tables WHERE schemaname = 'public' AND tablename LIKE $1`,
		config.StagingTablePrefix+"%")
	if err != nil {
		log.Printf("[StagingReaper] sweep query failed: %v", err)
		return
	}

	var stale []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		createdAt, ok := upload.StagingTableCreatedAt(name)
		if !ok {
			continue
		}
		if time.Since(createdAt) > s.ttl {
			stale = append(stale, name)
		}
	}
	rows.Close()

	for _, name := range stale {
		log.Printf("[StagingReaper] dropping stale staging table %s", name)
		upload.DropStaging(ctx, s.pool, name)
	}
	if len(stale) > 0 {
		log.Printf("[StagingReaper] reaped %d stale staging table(s)", len(stale))
	}
}
