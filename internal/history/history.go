package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/types"
)

// DefaultKeep is how many responses are retained per request
const DefaultKeep = 50

// Entry is one recorded execution of a stored request
type Entry struct {
	ID         int64             `json:"id" yaml:"id"`
	RequestID  int64             `json:"requestId" yaml:"requestId"`
	Timestamp  time.Time         `json:"timestamp" yaml:"timestamp"`
	Method     types.Method      `json:"method" yaml:"method"`
	URL        string            `json:"url" yaml:"url"`
	Status     int               `json:"status" yaml:"status"`
	StatusText string            `json:"statusText" yaml:"statusText"`
	Headers    map[string]string `json:"headers" yaml:"headers"`
	Body       string            `json:"body" yaml:"body"`
	Duration   time.Duration     `json:"duration" yaml:"duration"`
	ReqSize    int               `json:"requestSize" yaml:"requestSize"`
	RespSize   int               `json:"responseSize" yaml:"responseSize"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Response rebuilds the executor result the entry was recorded from
func (e Entry) Response() *types.Response {
	return &types.Response{
		Status:       e.Status,
		StatusText:   e.StatusText,
		Headers:      e.Headers,
		Body:         e.Body,
		Duration:     e.Duration,
		RequestSize:  e.ReqSize,
		ResponseSize: e.RespSize,
		Error:        e.Error,
	}
}

// Manager reads and writes the history table. It shares the database handle
// of the store; rows are removed with their request through the foreign key.
type Manager struct {
	db   *sql.DB
	keep int
}

// NewManager keeps at most keep entries per request. keep <= 0 uses
// DefaultKeep.
func NewManager(db *sql.DB, keep int) *Manager {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Manager{db: db, keep: keep}
}

// Record stores the response of req and prunes entries beyond the limit
func (m *Manager) Record(req types.Request, resp *types.Response) error {
	if req.ID == 0 {
		return errdef.New(errdef.CodeValidation, "request %q has no id", req.Name)
	}
	if resp == nil {
		return errdef.New(errdef.CodeValidation, "no response to record")
	}

	headersJSON, err := json.Marshal(resp.Headers)
	if err != nil {
		return fmt.Errorf("failed to marshal response headers: %w", err)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO history (
			request_id, timestamp, method, url,
			response_status, response_status_text, response_headers, response_body,
			duration_ms, request_size, response_size, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID,
		time.Now().UTC(),
		string(req.Method),
		req.Details.URL,
		resp.Status,
		resp.StatusText,
		string(headersJSON),
		resp.Body,
		resp.Duration.Milliseconds(),
		resp.RequestSize,
		resp.ResponseSize,
		resp.Error,
	)
	if err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "failed to save history entry")
	}

	_, err = tx.Exec(`
		DELETE FROM history
		WHERE request_id = ? AND id NOT IN (
			SELECT id FROM history WHERE request_id = ? ORDER BY id DESC LIMIT ?
		)`, req.ID, req.ID, m.keep)
	if err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "failed to prune history")
	}

	if err := tx.Commit(); err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "failed to commit history entry")
	}
	return nil
}

// Load returns the newest entries of a request first. limit <= 0 returns all
// retained entries.
func (m *Manager) Load(requestID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := m.db.Query(`
		SELECT id, request_id, timestamp, method, url,
		       response_status, response_status_text, response_headers, response_body,
		       duration_ms, request_size, response_size, error
		FROM history
		WHERE request_id = ?
		ORDER BY id DESC
		LIMIT ?`, requestID, limit)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "failed to load history")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			method      string
			headersJSON string
			durationMs  int64
		)
		err := rows.Scan(
			&e.ID,
			&e.RequestID,
			&e.Timestamp,
			&method,
			&e.URL,
			&e.Status,
			&e.StatusText,
			&headersJSON,
			&e.Body,
			&durationMs,
			&e.ReqSize,
			&e.RespSize,
			&e.Error,
		)
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeStorage, err, "failed to scan history entry")
		}
		e.Method = types.Method(method)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		if err := json.Unmarshal([]byte(headersJSON), &e.Headers); err != nil || e.Headers == nil {
			e.Headers = make(map[string]string)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes every entry of a request
func (m *Manager) Clear(requestID int64) error {
	if _, err := m.db.Exec("DELETE FROM history WHERE request_id = ?", requestID); err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "failed to clear history")
	}
	return nil
}

// Count returns the number of retained entries of a request
func (m *Manager) Count(requestID int64) (int, error) {
	var n int
	err := m.db.QueryRow("SELECT COUNT(*) FROM history WHERE request_id = ?", requestID).Scan(&n)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeStorage, err, "failed to count history")
	}
	return n, nil
}
