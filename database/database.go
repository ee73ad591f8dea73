package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
	_ "modernc.org/sqlite"
)

// InitWhatsmeow opens the device store and runs the whatsmeow migrations.
// With postgres set the URL goes through lib/pq, otherwise it is a SQLite DSN.
func InitWhatsmeow(ctx context.Context, dbURL string, postgres bool, log waLog.Logger) (*sqlstore.Container, error) {
	driver, dialect := "sqlite", "sqlite3"
	if postgres {
		driver, dialect = "postgres", "postgres"
	} else if dir := sqliteDir(dbURL); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}

	db, err := sql.Open(driver, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	container := sqlstore.NewWithDB(db, dialect, log)
	if err := container.Upgrade(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("upgrade device store: %w", err)
	}
	return container, nil
}

// sqliteDir returns the directory of a "file:" DSN so it can be created.
func sqliteDir(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return ""
	}
	return dir
}
