package waypoint

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is the persistence boundary for the active waypoint list.
type Store interface {
	// Core store operations
	OpenStore(filename string) error
	CloseStore() error
	CreateStore(filename string) error

	// Waypoint operations
	ListWaypoints() ([]Waypoint, error)
	CreateWaypoint(wp Waypoint) (int64, error)
	DeleteWaypoint(id int64) error
	RelabelWaypoint(id int64, label string) error
	SetAlias(id int64, alias string) error
	SetColor(id int64, colorIdx int) error
	SetVisible(id int64, visible bool) error
	Count() (int, error)

	GetStoreOpen() bool

	// Transaction support so a reconciliation diff can be applied atomically
	BeginTransaction() error
	CommitTransaction() error
	RollbackTransaction() error

	// Internal access for advanced operations
	GetDB() *sql.DB
}

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db       *sql.DB
	dbOpen   bool
	filename string
	tx       *sql.Tx // Current transaction

	// Prepared statements for performance
	listStmt   *sql.Stmt
	createStmt *sql.Stmt
}

// NewStore creates a new SQLite waypoint store instance
func NewStore() *SQLiteStore {
	return &SQLiteStore{}
}

// OpenStore opens an existing SQLite waypoint store
func (s *SQLiteStore) OpenStore(filename string) error {
	if s.dbOpen {
		return fmt.Errorf("store already open")
	}

	var err error
	s.db, err = sql.Open("sqlite", filename)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if err = s.db.Ping(); err != nil {
		return fmt.Errorf("failed to ping store: %w", err)
	}

	if err = s.createSchema(); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	if err = s.prepareStatements(); err != nil {
		return fmt.Errorf("failed to prepare statements: %w", err)
	}

	s.filename = filename
	s.dbOpen = true
	return nil
}

// CreateStore creates a new SQLite waypoint store with the required schema
func (s *SQLiteStore) CreateStore(filename string) error {
	var err error
	s.db, err = sql.Open("sqlite", filename)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	if err = s.createSchema(); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err = s.prepareStatements(); err != nil {
		return fmt.Errorf("failed to prepare statements: %w", err)
	}

	s.filename = filename
	s.dbOpen = true
	return nil
}

// CloseStore closes the waypoint store
func (s *SQLiteStore) CloseStore() error {
	if !s.dbOpen {
		return nil
	}

	if s.listStmt != nil {
		s.listStmt.Close()
	}
	if s.createStmt != nil {
		s.createStmt.Close()
	}

	err := s.db.Close()
	s.dbOpen = false
	return err
}

func (s *SQLiteStore) createSchema() error {
	waypointsTable := `
	CREATE TABLE IF NOT EXISTS waypoints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		x INTEGER NOT NULL,
		z INTEGER NOT NULL,
		label TEXT DEFAULT '',
		alias TEXT DEFAULT '',
		color_idx INTEGER DEFAULT 0,
		visible BOOLEAN DEFAULT TRUE
	);`

	if _, err := s.db.Exec(waypointsTable); err != nil {
		return fmt.Errorf("failed to create waypoints table: %w", err)
	}

	positionIndex := `
	CREATE INDEX IF NOT EXISTS idx_waypoints_position ON waypoints (x, z);`

	if _, err := s.db.Exec(positionIndex); err != nil {
		return fmt.Errorf("failed to create position index: %w", err)
	}

	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.listStmt, err = s.db.Prepare(
		`SELECT id, x, z, label, alias, color_idx, visible FROM waypoints ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	s.createStmt, err = s.db.Prepare(
		`INSERT INTO waypoints (x, z, label, alias, color_idx, visible) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare create statement: %w", err)
	}

	return nil
}

// ListWaypoints returns every waypoint in the store in insertion order
func (s *SQLiteStore) ListWaypoints() ([]Waypoint, error) {
	if !s.dbOpen {
		return nil, fmt.Errorf("store not open")
	}

	rows, err := s.listStmt.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to list waypoints: %w", err)
	}
	defer rows.Close()

	var waypoints []Waypoint
	for rows.Next() {
		var wp Waypoint
		if err := rows.Scan(&wp.ID, &wp.X, &wp.Z, &wp.Label, &wp.Alias, &wp.ColorIdx, &wp.Visible); err != nil {
			return nil, fmt.Errorf("failed to scan waypoint: %w", err)
		}
		waypoints = append(waypoints, wp)
	}

	return waypoints, rows.Err()
}

// CreateWaypoint inserts a new waypoint and returns its ID
func (s *SQLiteStore) CreateWaypoint(wp Waypoint) (int64, error) {
	if !s.dbOpen {
		return 0, fmt.Errorf("store not open")
	}

	result, err := s.exec(s.createStmt, wp.X, wp.Z, wp.Label, wp.Alias, wp.ColorIdx, wp.Visible)
	if err != nil {
		return 0, fmt.Errorf("failed to create waypoint: %w", err)
	}

	return result.LastInsertId()
}

// DeleteWaypoint removes a waypoint by ID
func (s *SQLiteStore) DeleteWaypoint(id int64) error {
	if !s.dbOpen {
		return fmt.Errorf("store not open")
	}

	_, err := s.execSQL(`DELETE FROM waypoints WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete waypoint %d: %w", id, err)
	}
	return nil
}

// RelabelWaypoint replaces the label of a waypoint
func (s *SQLiteStore) RelabelWaypoint(id int64, label string) error {
	if !s.dbOpen {
		return fmt.Errorf("store not open")
	}

	_, err := s.execSQL(`UPDATE waypoints SET label = ? WHERE id = ?`, label, id)
	if err != nil {
		return fmt.Errorf("failed to relabel waypoint %d: %w", id, err)
	}
	return nil
}

// SetAlias replaces the alias of a waypoint
func (s *SQLiteStore) SetAlias(id int64, alias string) error {
	if !s.dbOpen {
		return fmt.Errorf("store not open")
	}

	_, err := s.execSQL(`UPDATE waypoints SET alias = ? WHERE id = ?`, alias, id)
	if err != nil {
		return fmt.Errorf("failed to set alias on waypoint %d: %w", id, err)
	}
	return nil
}

// SetColor replaces the color index of a waypoint
func (s *SQLiteStore) SetColor(id int64, colorIdx int) error {
	if !s.dbOpen {
		return fmt.Errorf("store not open")
	}

	_, err := s.execSQL(`UPDATE waypoints SET color_idx = ? WHERE id = ?`, colorIdx, id)
	if err != nil {
		return fmt.Errorf("failed to set color on waypoint %d: %w", id, err)
	}
	return nil
}

// SetVisible toggles the visibility flag of a waypoint
func (s *SQLiteStore) SetVisible(id int64, visible bool) error {
	if !s.dbOpen {
		return fmt.Errorf("store not open")
	}

	_, err := s.execSQL(`UPDATE waypoints SET visible = ? WHERE id = ?`, visible, id)
	if err != nil {
		return fmt.Errorf("failed to set visibility on waypoint %d: %w", id, err)
	}
	return nil
}

// Count returns the number of waypoints in the store
func (s *SQLiteStore) Count() (int, error) {
	if !s.dbOpen {
		return 0, fmt.Errorf("store not open")
	}

	var count int
	var err error
	if s.tx != nil {
		err = s.tx.QueryRow(`SELECT COUNT(*) FROM waypoints`).Scan(&count)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM waypoints`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count waypoints: %w", err)
	}
	return count, nil
}

// GetStoreOpen reports whether the store is open
func (s *SQLiteStore) GetStoreOpen() bool {
	return s.dbOpen
}

// BeginTransaction starts a transaction for batch waypoint updates
func (s *SQLiteStore) BeginTransaction() error {
	if !s.dbOpen {
		return fmt.Errorf("store not open")
	}
	if s.tx != nil {
		return fmt.Errorf("transaction already in progress")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// CommitTransaction commits the current transaction
func (s *SQLiteStore) CommitTransaction() error {
	if s.tx == nil {
		return fmt.Errorf("no transaction in progress")
	}
	err := s.tx.Commit()
	s.tx = nil
	return err
}

// RollbackTransaction rolls back the current transaction
func (s *SQLiteStore) RollbackTransaction() error {
	if s.tx == nil {
		return fmt.Errorf("no transaction in progress")
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

// GetDB returns the underlying database handle
func (s *SQLiteStore) GetDB() *sql.DB {
	return s.db
}

// exec runs a prepared statement inside the current transaction if one is active
func (s *SQLiteStore) exec(stmt *sql.Stmt, args ...any) (sql.Result, error) {
	if s.tx != nil {
		return s.tx.Stmt(stmt).Exec(args...)
	}
	return stmt.Exec(args...)
}

// execSQL runs ad-hoc SQL inside the current transaction if one is active
func (s *SQLiteStore) execSQL(query string, args ...any) (sql.Result, error) {
	if s.tx != nil {
		return s.tx.Exec(query, args...)
	}
	return s.db.Exec(query, args...)
}
