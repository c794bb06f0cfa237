package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/studiowebux/apiquest/internal/executor"
	"github.com/studiowebux/apiquest/internal/history"
)

// HistoryReader is the read side of the response history
type HistoryReader interface {
	Load(requestID int64, limit int) ([]history.Entry, error)
	Stats(requestID int64) (history.Stats, error)
}

// History prints the most recent responses of a stored request followed by
// a summary over everything retained
func History(w io.Writer, store Loader, hist HistoryReader, group, name string, limit int) error {
	groups, err := store.LoadAll()
	if err != nil {
		return err
	}
	req, err := findRequest(groups, group, name)
	if err != nil {
		return err
	}

	entries, err := hist.Load(req.ID, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "No history for %s/%s\n", group, name)
		return nil
	}

	for _, e := range entries {
		status := fmt.Sprintf("%s%d %s%s", getStatusColor(e.Status), e.Status, e.StatusText, colorReset)
		if e.Status == 0 {
			status = colorRed + "ERR" + colorReset
		}
		fmt.Fprintf(w, "%s  %-6s %s  %s  %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Method,
			status,
			executor.FormatDuration(e.Duration),
			e.URL)
		if e.Error != "" {
			fmt.Fprintf(w, "    %s\n", e.Error)
		}
	}

	stats, err := hist.Stats(req.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, formatStats(stats))
	return nil
}

func formatStats(s history.Stats) string {
	codes := make([]int, 0, len(s.StatusCodes))
	for code := range s.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		parts = append(parts, fmt.Sprintf("%d×%d", code, s.StatusCodes[code]))
	}

	return fmt.Sprintf("%d call(s), %.0f%% success, %d network error(s) | avg %s, min %s, max %s | %s",
		s.TotalCalls,
		s.SuccessRate()*100,
		s.NetworkErrors,
		executor.FormatDuration(s.AvgDuration),
		executor.FormatDuration(s.MinDuration),
		executor.FormatDuration(s.MaxDuration),
		strings.Join(parts, " "))
}
