package db

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/learnpath-backend/internal/platform/envutil"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type PostgresConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string

	// SSL enables TLS; with CAPath set the server certificate is verified
	// against that root.
	SSL    bool
	CAPath string

	PoolMin         int
	PoolMax         int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration

	AutoMigrate bool
}

func PostgresConfigFromEnv() PostgresConfig {
	return PostgresConfig{
		Host:            envutil.String("POSTGRES_HOST", "localhost"),
		Port:            envutil.Int("POSTGRES_PORT", 5432),
		Name:            envutil.String("POSTGRES_DB", "learnia"),
		User:            envutil.String("POSTGRES_USER", "postgres"),
		Password:        envutil.String("POSTGRES_PASSWORD", ""),
		SSL:             envutil.Bool("DB_SSL", false),
		CAPath:          envutil.String("DB_CA_PATH", ""),
		PoolMin:         envutil.Int("POSTGRES_POOL_MIN", 1),
		PoolMax:         envutil.Int("POSTGRES_POOL_MAX", 5),
		ConnMaxLifetime: envutil.Duration("POSTGRES_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnectTimeout:  envutil.Duration("POSTGRES_CONNECT_TIMEOUT", 5*time.Second),
		AutoMigrate:     envutil.Bool("POSTGRES_AUTOMIGRATE", false),
	}
}

// DSN renders cfg as a libpq URL understood by pgx.
func (cfg PostgresConfig) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	switch {
	case !cfg.SSL:
		q.Set("sslmode", "disable")
	case strings.TrimSpace(cfg.CAPath) != "":
		q.Set("sslmode", "verify-full")
		q.Set("sslrootcert", cfg.CAPath)
	default:
		q.Set("sslmode", "require")
	}
	if cfg.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(cfg.ConnectTimeout/time.Second)))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(ctx context.Context, logg *logger.Logger, cfg PostgresConfig) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if err := ConfigurePool(db, cfg); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	if cfg.AutoMigrate {
		if err := AutoMigrateAll(db); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	serviceLog.Info("postgres_connected",
		"host", cfg.Host,
		"database", cfg.Name,
		"pool_min", cfg.PoolMin,
		"pool_max", cfg.PoolMax,
		"ssl", cfg.SSL,
	)
	return &PostgresService{db: db, log: serviceLog}, nil
}

// ConfigurePool bounds the underlying database/sql pool.
func ConfigurePool(db *gorm.DB, cfg PostgresConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres handle: %w", err)
	}
	maxOpen := cfg.PoolMax
	if maxOpen <= 0 {
		maxOpen = 5
	}
	idle := cfg.PoolMin
	if idle < 0 {
		idle = 0
	}
	if idle > maxOpen {
		idle = maxOpen
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(idle)
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
