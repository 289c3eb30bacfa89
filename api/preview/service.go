package preview

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"ConsolidaFin/internal/serviceiface"
)

type PreviewService struct {
	config map[string]interface{}
	pool   *pgxpool.Pool
}

func NewPreviewService(cfg map[string]interface{}, pool *pgxpool.Pool) serviceiface.Service {
	return &PreviewService{config: cfg, pool: pool}
}

func (s *PreviewService) Name() string { return "preview" }

func (s *PreviewService) Start() error {
	port, _ := s.config["port"].(int)
	if port == 0 {
		port = 7144
	}
	go StartPreviewService(s.pool, port)
	return nil
}

func (s *PreviewService) Stop() error {
	return nil
}
