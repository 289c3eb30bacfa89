package upload

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"ConsolidaFin/internal/serviceiface"
)

type UploadService struct {
	config map[string]interface{}
	pool   *pgxpool.Pool
	jobs   JobStore
}

func NewUploadService(cfg map[string]interface{}, pool *pgxpool.Pool) serviceiface.Service {
	return &UploadService{config: cfg, pool: pool, jobs: NewMemoryJobStore()}
}

func (s *UploadService) Name() string { return "upload" }

func (s *UploadService) Start() error {
	port, _ := s.config["port"].(int)
	if port == 0 {
		port = 7143
	}
	go StartUploadService(s.pool, s.jobs, port)
	return nil
}

func (s *UploadService) Stop() error {
	return nil
}
