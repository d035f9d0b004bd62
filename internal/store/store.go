// Package store persists saved-product records on database/sql.
//
// Two dialects are supported: SQLite (pure Go, used in development and
// tests) and MySQL. Both share the same queries; only schema and
// duplicate-key detection differ.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"cartpromo/internal/model"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_mysql.sql
var mysqlSchema string

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// mysqlErrDupEntry is ER_DUP_ENTRY.
const mysqlErrDupEntry = 1062

// Store provides saved-product persistence.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and applies the schema.
// Safe to call against an existing database.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var (
		db     *sql.DB
		schema string
		err    error
	)

	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		db, err = openSQLite(ctx, dsn)
		schema = sqliteSchema
	case DriverMySQL:
		db, err = openMySQL(ctx, dsn)
		schema = mysqlSchema
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := applySchema(ctx, db, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func openSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = "file:cartpromo.db"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps :memory:
	// databases alive for the lifetime of the Store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return db, nil
}

func openMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: parse dsn: %w", err)
	}
	if cfg.Addr == "" || cfg.User == "" || cfg.DBName == "" {
		return nil, errors.New("mysql: address, user and database are required")
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connection error %w", err)
	}
	db := sql.OpenDB(connector)

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping %w", err)
	}
	return db, nil
}

// applySchema runs each statement of the embedded schema in order.
func applySchema(ctx context.Context, db *sql.DB, schema string) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Create inserts a new record and sets its ID.
// A record for the same shop and product already present yields ErrConflict.
func (s *Store) Create(ctx context.Context, p *model.SavedProduct) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	created := p.CreatedAt.UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_products
			(shop, product_id, title, handle, image, available_quantity, is_available, created_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Shop, p.ProductID, p.Title, p.Handle, p.Image, p.AvailableQuantity, p.IsAvailable, created,
	)
	if err != nil {
		if isDuplicate(err) {
			return model.NewConflictError("saved product " + p.ProductID)
		}
		return fmt.Errorf("insert saved product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert saved product: %w", err)
	}
	p.ID = id
	p.CreatedAt = created
	return nil
}

// Lookup returns the record for shop and productID, or (nil, nil) when none
// exists.
func (s *Store) Lookup(ctx context.Context, shop, productID string) (*model.SavedProduct, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, shop, product_id, title, handle, image, available_quantity, is_available, created_time
		FROM saved_products
		WHERE shop = ? AND product_id = ?`,
		shop, productID,
	)

	var (
		p     model.SavedProduct
		image sql.NullString
	)
	err := row.Scan(&p.ID, &p.Shop, &p.ProductID, &p.Title, &p.Handle, &image,
		&p.AvailableQuantity, &p.IsAvailable, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query saved product: %w", err)
	}
	p.Image = image.String
	return &p, nil
}

// PersistAvailability overwrites the availability snapshot of one record.
// Updating a record that does not exist returns ErrNotFound.
func (s *Store) PersistAvailability(ctx context.Context, shop, productID string, quantity int, available bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE saved_products
		SET available_quantity = ?, is_available = ?
		WHERE shop = ? AND product_id = ?`,
		quantity, available, shop, productID,
	)
	if err != nil {
		return fmt.Errorf("update saved product: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update saved product: %w", err)
	}
	// MySQL reports 0 affected rows when the values are unchanged, so only
	// SQLite can tell a missing row apart here.
	if n == 0 && s.driver == DriverSQLite {
		return model.NewNotFoundError("saved product")
	}
	return nil
}

// List returns every record for shop, oldest first.
func (s *Store) List(ctx context.Context, shop string) ([]model.SavedProduct, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shop, product_id, title, handle, image, available_quantity, is_available, created_time
		FROM saved_products
		WHERE shop = ?
		ORDER BY id`,
		shop,
	)
	if err != nil {
		return nil, fmt.Errorf("query saved products: %w", err)
	}
	defer rows.Close()

	products := []model.SavedProduct{}
	for rows.Next() {
		var (
			p     model.SavedProduct
			image sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Shop, &p.ProductID, &p.Title, &p.Handle, &image,
			&p.AvailableQuantity, &p.IsAvailable, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan saved product: %w", err)
		}
		p.Image = image.String
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved products: %w", err)
	}
	return products, nil
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrDupEntry
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
