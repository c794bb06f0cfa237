package history

import (
	"database/sql"
	"errors"
	"time"

	"github.com/studiowebux/apiquest/internal/errdef"
)

// Stats aggregates the retained history of one request
type Stats struct {
	TotalCalls    int
	SuccessCount  int
	ErrorCount    int
	NetworkErrors int
	AvgDuration   time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	StatusCodes   map[int]int
	LastCalled    time.Time
}

// SuccessRate is the share of 2xx responses, 0 when nothing was recorded
func (s Stats) SuccessRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.TotalCalls)
}

// Stats summarizes the retained entries of a request. Responses with status 0
// are transport failures and are counted as network errors only.
func (m *Manager) Stats(requestID int64) (Stats, error) {
	s := Stats{StatusCodes: make(map[int]int)}

	var avg float64
	var minMs, maxMs int64
	err := m.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN response_status >= 200 AND response_status < 300 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN response_status >= 400 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN response_status = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(duration_ms), 0),
			COALESCE(MIN(duration_ms), 0),
			COALESCE(MAX(duration_ms), 0)
		FROM history
		WHERE request_id = ?`, requestID).Scan(
		&s.TotalCalls,
		&s.SuccessCount,
		&s.ErrorCount,
		&s.NetworkErrors,
		&avg,
		&minMs,
		&maxMs,
	)
	if err != nil {
		return s, errdef.Wrap(errdef.CodeStorage, err, "failed to get history stats")
	}
	if s.TotalCalls == 0 {
		return s, nil
	}
	s.AvgDuration = time.Duration(avg * float64(time.Millisecond))
	s.MinDuration = time.Duration(minMs) * time.Millisecond
	s.MaxDuration = time.Duration(maxMs) * time.Millisecond

	rows, err := m.db.Query(`
		SELECT response_status, COUNT(*)
		FROM history
		WHERE request_id = ?
		GROUP BY response_status`, requestID)
	if err != nil {
		return s, errdef.Wrap(errdef.CodeStorage, err, "failed to get status codes")
	}
	for rows.Next() {
		var code, count int
		if err := rows.Scan(&code, &count); err != nil {
			rows.Close()
			return s, errdef.Wrap(errdef.CodeStorage, err, "failed to scan status codes")
		}
		s.StatusCodes[code] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return s, errdef.Wrap(errdef.CodeStorage, err, "failed to read status codes")
	}

	err = m.db.QueryRow(`
		SELECT timestamp FROM history
		WHERE request_id = ?
		ORDER BY id DESC
		LIMIT 1`, requestID).Scan(&s.LastCalled)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return s, errdef.Wrap(errdef.CodeStorage, err, "failed to get last call")
	}
	return s, nil
}
