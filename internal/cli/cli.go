package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/apiquest/internal/config"
	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/executor"
	"github.com/studiowebux/apiquest/internal/filter"
	"github.com/studiowebux/apiquest/internal/types"
)

// ErrRequestFailed marks a send that completed with a 4xx/5xx status or a
// transport error. Output has already been written when it is returned.
var ErrRequestFailed = errdef.New(errdef.CodeNetwork, "request failed")

// Loader reads the stored collection
type Loader interface {
	LoadAll() ([]types.Group, error)
}

// isInteractive checks if stdin is a terminal (not piped)
func isInteractive() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	stat, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// List prints every group and its requests
func List(w io.Writer, store Loader) error {
	groups, err := store.LoadAll()
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Fprintln(w, "No groups yet. Start the TUI and press e to create one.")
		return nil
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	for _, g := range groups {
		fmt.Fprintf(w, "%s (%d)\n", g.Name, len(g.Requests))
		for _, r := range g.Requests {
			url := r.Details.URL
			if url == "" {
				url = "-"
			}
			fmt.Fprintf(w, "  %-28s %s\n", r.Label(), url)
		}
	}
	return nil
}

// SendOptions contains options for sending a stored request
type SendOptions struct {
	Group        string
	Request      string
	OutputFormat string // json, yaml, text, body
	Filter       string // JMESPath expression or $(command)
	SavePath     string
	ShowFull     bool
	Executor     executor.Options
	History      Recorder
}

// Recorder keeps the responses of executed requests
type Recorder interface {
	Record(req types.Request, resp *types.Response) error
}

// Send executes a stored request and prints the response. A response with an
// error status is printed before ErrRequestFailed is returned.
func Send(ctx context.Context, w io.Writer, store Loader, opts SendOptions) error {
	groups, err := store.LoadAll()
	if err != nil {
		return err
	}

	if opts.Group == "" || opts.Request == "" {
		if !isInteractive() {
			return errdef.New(errdef.CodeValidation, "group and request are required in non-interactive mode")
		}
		opts.Group, opts.Request, err = promptForRequest(groups)
		if err != nil {
			return err
		}
	}

	req, err := findRequest(groups, opts.Group, opts.Request)
	if err != nil {
		return err
	}

	result, execErr := executor.Execute(ctx, req, opts.Executor)
	if result == nil {
		return execErr
	}
	if opts.History != nil {
		if err := opts.History.Record(req, result); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record history: %s\n", errdef.Message(err))
		}
	}

	if opts.Filter != "" && execErr == nil {
		filtered, err := filter.Apply(ctx, result.Body, opts.Filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: filter error: %s\n", errdef.Message(err))
		} else {
			result.Body = filtered
		}
	}

	outputFormat := opts.OutputFormat
	if outputFormat == "" {
		// Output is being piped, just show body
		outputFormat = "body"
		if isTerminal() {
			outputFormat = "text"
		}
	}

	output, err := formatOutput(result, outputFormat, opts.ShowFull)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if opts.SavePath != "" {
		if err := os.WriteFile(opts.SavePath, []byte(output), config.FilePermissions); err != nil {
			return fmt.Errorf("failed to save response: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Response saved to %s\n", opts.SavePath)
	} else {
		fmt.Fprint(w, output)
	}

	if execErr != nil {
		return execErr
	}
	if result.Status >= 400 {
		return ErrRequestFailed
	}
	return nil
}

func findRequest(groups []types.Group, group, name string) (types.Request, error) {
	for _, g := range groups {
		if g.Name != group {
			continue
		}
		for _, r := range g.Requests {
			if r.Name == name {
				return r, nil
			}
		}
		return types.Request{}, errdef.New(errdef.CodeAddressing, "request %q not found in group %q", name, group)
	}
	return types.Request{}, errdef.New(errdef.CodeAddressing, "group %q not found", group)
}

// formatOutput formats the result based on the output format
func formatOutput(result *types.Response, format string, showFull bool) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil

	case "yaml":
		data, err := yaml.Marshal(result)
		if err != nil {
			return "", err
		}
		return string(data), nil

	case "body":
		return result.Body, nil

	case "text":
		var sb strings.Builder

		if result.Status != 0 {
			statusColor := getStatusColor(result.Status)
			sb.WriteString(fmt.Sprintf("%s%d %s%s\n", statusColor, result.Status, result.StatusText, colorReset))
			sb.WriteString(fmt.Sprintf("Duration: %s | Size: %s\n",
				executor.FormatDuration(result.Duration),
				executor.FormatSize(result.ResponseSize)))
		}

		if showFull && len(result.Headers) > 0 {
			sb.WriteString("\nHeaders:\n")
			keys := make([]string, 0, len(result.Headers))
			for key := range result.Headers {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", key, result.Headers[key]))
			}
		}

		if result.Body != "" {
			if showFull {
				sb.WriteString("\nBody:\n")
			} else {
				sb.WriteString("\n")
			}
			sb.WriteString(result.Body)
			sb.WriteString("\n")
		}

		if result.Error != "" {
			sb.WriteString(fmt.Sprintf("\n%sError: %s%s\n", colorRed, result.Error, colorReset))
		}

		return sb.String(), nil
	}
	return "", errdef.New(errdef.CodeValidation, "unknown output format %q (json, yaml, text, body)", format)
}

// ANSI color codes
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
)

func getStatusColor(status int) string {
	if executor.IsSuccessStatus(status) {
		return colorGreen
	} else if status >= 400 {
		return colorRed
	}
	return colorYellow
}
