package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/unidine-backend/internal/platform/envutil"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string

	Host     string
	Port     string
	User     string
	Password string
	Name     string

	SQLitePath string
}

func ConfigFromEnv() Config {
	return Config{
		Driver:     strings.ToLower(envutil.String("DB_DRIVER", DriverPostgres)),
		Host:       envutil.String("POSTGRES_HOST", "localhost"),
		Port:       envutil.String("POSTGRES_PORT", "5432"),
		User:       envutil.String("POSTGRES_USER", "postgres"),
		Password:   envutil.String("POSTGRES_PASSWORD", ""),
		Name:       envutil.String("POSTGRES_NAME", "unidine"),
		SQLitePath: envutil.String("SQLITE_PATH", "unidine.db"),
	}
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

type DatabaseService struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

func NewDatabaseService(cfg Config, logg *logger.Logger) (*DatabaseService, error) {
	serviceLog := logg.With("service", "DatabaseService", "driver", cfg.Driver)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gcfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.SQLitePath, err)
		}
		// sqlite serializes writers; a single connection avoids "database is locked".
		if sqlDB, sErr := db.DB(); sErr == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	case DriverPostgres, "":
		db, err = gorm.Open(postgres.Open(cfg.PostgresDSN()), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		cfg.Driver = DriverPostgres
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	serviceLog.Info("database connected")
	return &DatabaseService{db: db, driver: cfg.Driver, log: serviceLog}, nil
}

func (s *DatabaseService) DB() *gorm.DB { return s.db }

func (s *DatabaseService) Driver() string { return s.driver }

func (s *DatabaseService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SupportsRowLocks reports whether SELECT ... FOR UPDATE is meaningful for db.
func SupportsRowLocks(db *gorm.DB) bool {
	if db == nil || db.Dialector == nil {
		return false
	}
	return db.Dialector.Name() == DriverPostgres
}
