package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/cognisync-backend/internal/platform/envutil"
	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/types"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New connects to Postgres, or falls back to a local SQLite file when
// POSTGRES_HOST is unset (local/dev deployments).
func New(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	host := envutil.String("POSTGRES_HOST", "")
	if host == "" {
		path := envutil.String("SQLITE_PATH", "cognisync.db")
		serviceLog.Info("POSTGRES_HOST not set, using sqlite", "path", path)
		gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &Service{db: gdb, log: serviceLog}, nil
	}

	port := envutil.String("POSTGRES_PORT", "5432")
	user := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "cognisync")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &Service{db: gdb, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	return s.db.AutoMigrate(
		&types.Learner{},
		&types.ProfileSnapshot{},
		&types.CalibrationRecord{},
		&types.ChatMessage{},
	)
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
