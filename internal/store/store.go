package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-sqlite3"

	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/logging"
	"github.com/studiowebux/apiquest/internal/migrations"
	"github.com/studiowebux/apiquest/internal/types"
)

var (
	ErrNotFound  = errdef.New(errdef.CodeAddressing, "record not found")
	ErrDuplicate = errdef.New(errdef.CodeValidation, "name already taken")
)

// Store persists groups and requests in SQLite. Every method holds the same
// mutex, so no two operations interleave, and every write runs in a single
// transaction.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *log.Logger
	path   string
}

// Open creates (if needed) and migrates the database at dbPath
func Open(dbPath string, logger *log.Logger) (*Store, error) {
	logger = logging.OrNop(logger)

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "failed to open database")
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errdef.Wrap(errdef.CodeStorage, err, "failed to connect to database")
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, errdef.Wrap(errdef.CodeStorage, err, "failed to run migrations")
	}

	logger.Debug("store opened", "path", dbPath)
	return &Store{db: db, logger: logger, path: dbPath}, nil
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

// DB exposes the handle for tables owned by other packages, such as the
// response history
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database handle
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// CreateGroup inserts a group and returns its id
func (s *Store) CreateGroup(name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("INSERT INTO groups (name) VALUES (?)", name)
	if err != nil {
		return 0, s.fail(err, "failed to create group %q", name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, s.fail(err, "failed to read id of group %q", name)
	}

	s.logger.Debug("group created", "id", id, "name", name)
	return id, nil
}

// DeleteGroup removes a group with all its requests and their headers and
// params
func (s *Store) DeleteGroup(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(func(tx *sql.Tx) error {
		children := "SELECT id FROM requests WHERE group_id = ?"
		if _, err := tx.Exec("DELETE FROM headers WHERE request_id IN ("+children+")", id); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM params WHERE request_id IN ("+children+")", id); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM requests WHERE group_id = ?", id); err != nil {
			return err
		}
		return deleteOne(tx, "DELETE FROM groups WHERE id = ?", id)
	})
	if err != nil {
		return s.fail(err, "failed to delete group %d", id)
	}

	s.logger.Debug("group deleted", "id", id)
	return nil
}

// CreateRequest inserts the request row then every header and param row
func (s *Store) CreateRequest(groupID int64, req types.Request) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		username, password := credentials(req.Details)
		res, err := tx.Exec(`
			INSERT INTO requests (group_id, name, request_type, url, body, auth_type, auth_username, auth_password)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			groupID, req.Name, req.Method.String(), req.Details.URL, req.Details.Body,
			req.Details.AuthType.String(), username, password,
		)
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		return insertChildren(tx, id, req.Details)
	})
	if err != nil {
		return 0, s.fail(err, "failed to create request %q", req.Name)
	}

	s.logger.Debug("request created", "id", id, "group_id", groupID, "name", req.Name)
	return id, nil
}

// UpdateRequest rewrites the scalar fields and replaces all headers and
// params of the request
func (s *Store) UpdateRequest(id int64, req types.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(func(tx *sql.Tx) error {
		username, password := credentials(req.Details)
		err := updateOne(tx, `
			UPDATE requests
			SET name = ?, request_type = ?, url = ?, body = ?, auth_type = ?, auth_username = ?, auth_password = ?
			WHERE id = ?`,
			req.Name, req.Method.String(), req.Details.URL, req.Details.Body,
			req.Details.AuthType.String(), username, password, id,
		)
		if err != nil {
			return err
		}
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		return insertChildren(tx, id, req.Details)
	})
	if err != nil {
		return s.fail(err, "failed to update request %d", id)
	}

	s.logger.Debug("request updated", "id", id, "name", req.Name)
	return nil
}

// DeleteRequest removes headers and params before the request row
func (s *Store) DeleteRequest(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(func(tx *sql.Tx) error {
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		return deleteOne(tx, "DELETE FROM requests WHERE id = ?", id)
	})
	if err != nil {
		return s.fail(err, "failed to delete request %d", id)
	}

	s.logger.Debug("request deleted", "id", id)
	return nil
}

// GetRequest loads one request with its headers and params
func (s *Store) GetRequest(id int64) (types.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT id, name, request_type, url, body, auth_type, auth_username, auth_password
		FROM requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if err != nil {
		return types.Request{}, s.fail(err, "failed to load request %d", id)
	}
	if err := s.loadChildren(&req); err != nil {
		return types.Request{}, s.fail(err, "failed to load request %d", id)
	}
	return req, nil
}

// GetAllGroups returns every group ordered by name, without requests
func (s *Store) GetAllGroups() ([]types.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups, err := s.allGroups()
	if err != nil {
		return nil, s.fail(err, "failed to list groups")
	}
	return groups, nil
}

// GetRequestsForGroup returns the requests of a group ordered by name
func (s *Store) GetRequestsForGroup(groupID int64) ([]types.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests, err := s.requestsForGroup(groupID)
	if err != nil {
		return nil, s.fail(err, "failed to load requests of group %d", groupID)
	}
	return requests, nil
}

// LoadAll eagerly loads every group and its requests
func (s *Store) LoadAll() ([]types.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups, err := s.allGroups()
	if err != nil {
		return nil, s.fail(err, "failed to list groups")
	}
	for i := range groups {
		requests, err := s.requestsForGroup(groups[i].ID)
		if err != nil {
			return nil, s.fail(err, "failed to load requests of group %q", groups[i].Name)
		}
		groups[i].Requests = requests
	}

	s.logger.Debug("collection loaded", "groups", len(groups))
	return groups, nil
}

func (s *Store) allGroups() ([]types.Group, error) {
	rows, err := s.db.Query("SELECT id, name FROM groups ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []types.Group
	for rows.Next() {
		var g types.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Store) requestsForGroup(groupID int64) ([]types.Request, error) {
	rows, err := s.db.Query(`
		SELECT id, name, request_type, url, body, auth_type, auth_username, auth_password
		FROM requests WHERE group_id = ? ORDER BY name`, groupID)
	if err != nil {
		return nil, err
	}

	var requests []types.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// single connection: the cursor must be released before child queries
	rows.Close()

	for i := range requests {
		if err := s.loadChildren(&requests[i]); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

func (s *Store) loadChildren(req *types.Request) error {
	headers, err := s.keyValues("SELECT key, value FROM headers WHERE request_id = ? ORDER BY id", req.ID)
	if err != nil {
		return err
	}
	params, err := s.keyValues("SELECT key, value FROM params WHERE request_id = ? ORDER BY id", req.ID)
	if err != nil {
		return err
	}
	req.Details.Headers = headers
	req.Details.Params = params
	req.Details.SyncAuthorization()
	return nil
}

func (s *Store) keyValues(query string, requestID int64) (map[string]string, error) {
	rows, err := s.db.Query(query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *Store) withTx(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "err", rbErr)
		}
		return err
	}
	return tx.Commit()
}

// fail classifies err and logs it. Unique violations become ErrDuplicate and
// missing rows become ErrNotFound; everything else is a storage error.
func (s *Store) fail(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)

	var sqliteErr sqlite3.Error
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	case errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
		return fmt.Errorf("%s: %w", msg, ErrDuplicate)
	}

	s.logger.Error(msg, "err", err)
	return errdef.Wrap(errdef.CodeStorage, err, "%s", msg)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (types.Request, error) {
	var (
		req      types.Request
		method   string
		authType string
		username sql.NullString
		password sql.NullString
	)
	if err := row.Scan(&req.ID, &req.Name, &method, &req.Details.URL, &req.Details.Body, &authType, &username, &password); err != nil {
		return types.Request{}, err
	}

	req.Method, _ = types.ParseMethod(method)
	req.Details.AuthType = types.ParseAuthType(authType)
	if req.Details.AuthType == types.AuthBasic {
		req.Details.Basic = &types.BasicAuth{Username: username.String, Password: password.String}
	}
	return req, nil
}

func credentials(d types.RequestDetails) (sql.NullString, sql.NullString) {
	if d.AuthType != types.AuthBasic || d.Basic == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: d.Basic.Username, Valid: true},
		sql.NullString{String: d.Basic.Password, Valid: true}
}

func insertChildren(tx *sql.Tx, requestID int64, d types.RequestDetails) error {
	for k, v := range d.Headers {
		if _, err := tx.Exec("INSERT INTO headers (request_id, key, value) VALUES (?, ?, ?)", requestID, k, v); err != nil {
			return err
		}
	}
	for k, v := range d.Params {
		if _, err := tx.Exec("INSERT INTO params (request_id, key, value) VALUES (?, ?, ?)", requestID, k, v); err != nil {
			return err
		}
	}
	return nil
}

func deleteChildren(tx *sql.Tx, requestID int64) error {
	if _, err := tx.Exec("DELETE FROM headers WHERE request_id = ?", requestID); err != nil {
		return err
	}
	_, err := tx.Exec("DELETE FROM params WHERE request_id = ?", requestID)
	return err
}

func deleteOne(tx *sql.Tx, query string, id int64) error {
	return updateOne(tx, query, id)
}

func updateOne(tx *sql.Tx, query string, args ...any) error {
	res, err := tx.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
