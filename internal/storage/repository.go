package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/multierr"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLRepository implements Store on SQLite or PostgreSQL.
type SQLRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
	inTx    bool
}

// NewSQLiteRepository opens (and creates) the SQLite database at dbPath and
// applies the migrations.
func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	return open(DialectSQLite, dsn)
}

// NewPostgresRepository connects through the pgx stdlib driver.
func NewPostgresRepository(databaseURL string) (*SQLRepository, error) {
	return open(DialectPostgres, databaseURL)
}

func open(dialect Dialect, dsn string) (*SQLRepository, error) {
	db, err := sql.Open(driverName(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// one writer at a time; transactions serialize on this connection
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("Database ready", "dialect", dialect)

	return &SQLRepository{
		db:      db,
		queries: New(db, dialect),
		now:     time.Now,
	}, nil
}

func (r *SQLRepository) Dialect() Dialect {
	return r.queries.dialect
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Close() error {
	if r.db == nil || r.inTx {
		return nil
	}
	return r.db.Close()
}

// InTx runs fn inside a database transaction.
func (r *SQLRepository) InTx(ctx context.Context, fn func(tx Store) error) (err error) {
	if r.inTx {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = multierr.Append(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	view := &SQLRepository{db: r.db, queries: r.queries.WithTx(tx), now: r.now, inTx: true}
	if err = fn(view); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
