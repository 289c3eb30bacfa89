package appmanager

import (
	"database/sql"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"ConsolidaFin/api"
	"ConsolidaFin/api/auth"
	"ConsolidaFin/api/preview"
	"ConsolidaFin/api/upload"
	"ConsolidaFin/internal/jobs"
	"ConsolidaFin/internal/logger"
	"ConsolidaFin/internal/serviceiface"
)

var (
	db      *sql.DB
	pgxPool *pgxpool.Pool
)

// SetDB stores the database/sql connection used by the auth service.
func SetDB(database *sql.DB) {
	db = database
}

// SetPgxPool stores the pgx pool used by the pipeline services.
func SetPgxPool(pool *pgxpool.Pool) {
	pgxPool = pool
}

func GetDB() *sql.DB            { return db }
func GetPgxPool() *pgxpool.Pool { return pgxPool }

func cfgInt(cfg map[string]interface{}, key string) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		var parsed int
		if _, err := fmt.Sscanf(v, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return 0
}

var serviceConstructors = map[string]func(map[string]interface{}) serviceiface.Service{
	"logger": func(cfg map[string]interface{}) serviceiface.Service {
		return logger.NewLoggerService(cfg)
	},
	"auth": func(cfg map[string]interface{}) serviceiface.Service {
		return auth.NewAuthService(db, cfgInt(cfg, "max_users"), cfgInt(cfg, "session_timeout"))
	},
	"upload": func(cfg map[string]interface{}) serviceiface.Service {
		// yaml ints arrive as int already; normalize port for the service
		cfg = normalizePort(cfg)
		return upload.NewUploadService(cfg, pgxPool)
	},
	"preview": func(cfg map[string]interface{}) serviceiface.Service {
		cfg = normalizePort(cfg)
		return preview.NewPreviewService(cfg, pgxPool)
	},
	"housekeeping": func(cfg map[string]interface{}) serviceiface.Service {
		return jobs.NewStagingReaperService(normalizeInts(cfg, "staging_ttl_hours"), pgxPool)
	},
	"gateway": func(cfg map[string]interface{}) serviceiface.Service {
		return api.NewGatewayService(normalizePort(cfg))
	},
}

func normalizePort(cfg map[string]interface{}) map[string]interface{} {
	return normalizeInts(cfg, "port")
}

func normalizeInts(cfg map[string]interface{}, keys ...string) map[string]interface{} {
	if cfg == nil {
		cfg = map[string]interface{}{}
	}
	for _, k := range keys {
		if v := cfgInt(cfg, k); v != 0 {
			cfg[k] = v
		}
	}
	return cfg
}

// ------------------- MANAGER -------------------

type AppManager struct {
	services []serviceiface.Service
	mu       sync.Mutex
}

func NewAppManager() *AppManager {
	return &AppManager{services: make([]serviceiface.Service, 0)}
}

func (am *AppManager) RegisterService(s serviceiface.Service) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.services = append(am.services, s)
}

func (am *AppManager) StartAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	for _, service := range am.services {
		fmt.Println("Starting service:", service.Name())
		if err := service.Start(); err != nil {
			return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
		}
	}
	return nil
}

func (am *AppManager) StopAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	for i := len(am.services) - 1; i >= 0; i-- {
		svc := am.services[i]
		if err := svc.Stop(); err != nil {
			return fmt.Errorf("failed to stop service %s: %w", svc.Name(), err)
		}
	}
	return nil
}

func (am *AppManager) GetServiceByName(name string) serviceiface.Service {
	for _, svc := range am.services {
		if svc.Name() == name {
			return svc
		}
	}
	return nil
}

// ------------------- YAML CONFIG -------------------

type ServiceSequencer struct {
	Services []ServiceConfig `yaml:"services"`
}

type ServiceConfig struct {
	Name       string                 `yaml:"name"`
	StartOrder int                    `yaml:"start_order"`
	Config     map[string]interface{} `yaml:"config"`
}

func LoadServiceSequence(path string) ([]ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seq ServiceSequencer
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, err
	}
	sort.Slice(seq.Services, func(i, j int) bool {
		return seq.Services[i].StartOrder < seq.Services[j].StartOrder
	})
	return seq.Services, nil
}

// AutoRegisterServices instantiates every configured service and wires the
// cross-service globals (auth into the gateway, logger into everything).
func (am *AppManager) AutoRegisterServices(configs []ServiceConfig) {
	for _, svc := range configs {
		constructor, ok := serviceConstructors[svc.Name]
		if !ok {
			continue
		}
		service := constructor(svc.Config)
		am.RegisterService(service)
		if svc.Name == "auth" {
			if realAuthSvc, ok := service.(*auth.AuthService); ok {
				api.SetAuthService(realAuthSvc)
				auth.SetGlobalAuthService(realAuthSvc)
			}
		}
	}

	for _, svc := range am.services {
		if l, ok := svc.(*logger.LoggerService); ok {
			logger.SetGlobalLogger(l)
			break
		}
	}
}
