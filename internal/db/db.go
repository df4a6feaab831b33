// internal/db/db.go
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"samudaya.club/internal/config"
	"samudaya.club/internal/models"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var DB *sql.DB

func RunMigrations(dbConn *sql.DB, dbName string) error {
	driverInstance, err := mysql.WithInstance(dbConn, &mysql.Config{
		DatabaseName: dbName,
	})
	if err != nil {
		return fmt.Errorf("failed to create mysql migration driver: %w", err)
	}

	// Resolve the migrations directory relative to this file so tests and
	// the server binary agree on the path.
	_, currentFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return fmt.Errorf("failed to resolve current file path for migrations")
	}
	projectRoot := filepath.Join(filepath.Dir(currentFilePath), "..", "..")
	migrationsURL := "file://" + filepath.Join(projectRoot, "migrations")

	m, err := migrate.NewWithDatabaseInstance(migrationsURL, "mysql", driverInstance)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance (check path '%s'): %w", migrationsURL, err)
	}

	slog.Info("Applying migrations...", "path", migrationsURL)
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, dirty, verr := m.Version()
		if verr != nil {
			slog.Error("Failed to read migration status after failed Up", "migration_error", err, "status_error", verr)
		} else {
			slog.Error("Failed to apply migrations", "current_version", version, "dirty_state", dirty, "error_up", err)
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("Migrations: no changes.")
	} else {
		slog.Info("Migrations applied.")
	}
	return nil
}

func InitDB(appConfig *config.Config) error {
	var err error
	var dsn string

	dbCfg := appConfig.Database

	if dbCfg.Path != "" && strings.Contains(dbCfg.Path, "://") {
		dsn = dbCfg.Path
		if !strings.Contains(dsn, "multiStatements=true") {
			if strings.Contains(dsn, "?") {
				dsn += "&multiStatements=true"
			} else {
				dsn += "?multiStatements=true"
			}
		}
		slog.Info("Using DATABASE_DSN for the MariaDB connection.", "dsn_preview", strings.Split(dsn, "@")[0]+"@...")
	} else if dbCfg.Host != "" && dbCfg.User != "" && dbCfg.DBName != "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true",
			dbCfg.User,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.DBName,
		)
		slog.Info("Assembling DSN from components for MariaDB.")
	} else {
		return fmt.Errorf("insufficient MariaDB connection parameters: DSN or Host+User+DBName must be set")
	}

	safeDSN := dsn
	if dbCfg.Password != "" && strings.Contains(dsn, dbCfg.Password) {
		safeDSN = strings.Replace(dsn, dbCfg.Password, "****", 1)
	}
	slog.Info("Connecting to MariaDB", "dsn_for_connection", safeDSN)

	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MariaDB connection: %w", err)
	}

	DB.SetConnMaxLifetime(time.Minute * 3)
	DB.SetMaxOpenConns(10)
	DB.SetMaxIdleConns(10)

	if err = DB.Ping(); err != nil {
		openedDB := DB
		if openedDB != nil {
			_ = openedDB.Close()
		}
		return fmt.Errorf("failed to connect to MariaDB (ping failed): %w. DSN: %s", err, safeDSN)
	}
	slog.Info("Connected to MariaDB.")

	if err = RunMigrations(DB, dbCfg.DBName); err != nil {
		if DB != nil {
			_ = DB.Close()
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Table for alexedwards/scs mysqlstore.
	createTableSQL := `CREATE TABLE IF NOT EXISTS sessions (
		token CHAR(43) PRIMARY KEY,
		data BLOB NOT NULL,
		expiry TIMESTAMP(6) NOT NULL
	);`
	createIndexSQL := `CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions (expiry);`

	if _, errTable := DB.Exec(createTableSQL); errTable != nil {
		slog.Error("Failed to create the 'sessions' table.", "error", errTable)
	} else {
		if _, errIndex := DB.Exec(createIndexSQL); errIndex != nil {
			slog.Warn("Failed to create the 'sessions_expiry_idx' index.", "error", errIndex)
		}
	}

	defaultRoles := []models.Role{
		{Name: models.RoleUser, Description: "Default member role"},
		{Name: models.RoleAdmin, Description: "Administrator with full access"},
		{Name: models.RoleModerator, Description: "Moderator with content management access"},
	}
	for _, r := range defaultRoles {
		if _, errRole := CreateRoleIfNotExists(&r); errRole != nil {
			slog.Warn("Failed to create/check default role", "role_name", r.Name, "error", errRole)
		}
	}

	if err := NewMembershipsDB(DB).SeedDefaultTiers(); err != nil {
		slog.Warn("Failed to seed default membership tiers", "error", err)
	}

	slog.Info("Database initialized (migrations and seed data included).")
	return nil
}
