// Package history persists replay run history to a local sqlite
// database, so `replayverify session list|show` can report on past
// runs without re-parsing report files.
//
// Grounded on internal/storage/db.go's connection management
// (platform-aware data directory resolution, gorm.Open + AutoMigrate)
// and internal/storage/event_repo.go's async batched writer, repurposed
// from intercept-event history to replay-run history.
package history

import (
	"os"
	"path/filepath"
	"runtime"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps a gorm connection to the run-history database.
type DB struct {
	gormDB *gorm.DB
}

// Open creates (if needed) and connects to the run-history database at
// the platform-conventional data directory, running migrations.
func Open() (*DB, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt connects to the run-history database at an explicit path
// (used by tests; the CLI always opens the default location via Open).
func OpenAt(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	db := &DB{gormDB: gormDB}
	if err := db.autoMigrate(); err != nil {
		return nil, err
	}
	return db, nil
}

// GormDB exposes the underlying *gorm.DB for repositories in this
// package.
func (d *DB) GormDB() *gorm.DB { return d.gormDB }

// Close releases the underlying connection.
func (d *DB) Close() error {
	if d.gormDB == nil {
		return nil
	}
	sqlDB, err := d.gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *DB) autoMigrate() error {
	return d.gormDB.AutoMigrate(&RunRecord{})
}

// dbPath resolves the platform-conventional data directory for
// replayverify's run-history database.
func dbPath() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			baseDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(home, "Library", "Application Support")
	default:
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(home, ".local", "share")
		}
	}

	return filepath.Join(baseDir, "replayverify", "history.db"), nil
}
