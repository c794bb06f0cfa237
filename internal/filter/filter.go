package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/jmespath/go-jmespath"

	"github.com/studiowebux/apiquest/internal/errdef"
)

// ShellTimeout bounds a $(command) expression
const ShellTimeout = 10 * time.Second

var shellPattern = regexp.MustCompile(`^\$\((.+)\)$`)

// Apply runs expr against a response body. A JMESPath expression must face
// a JSON body; an expression of the form $(command) pipes the body through
// sh -c instead. An empty expression returns the body unchanged.
func Apply(ctx context.Context, body, expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return body, nil
	}

	if matches := shellPattern.FindStringSubmatch(expr); len(matches) > 1 {
		out, err := runShell(ctx, body, matches[1])
		if err != nil {
			return "", errdef.Wrap(errdef.CodeValidation, err, "filter command failed")
		}
		return out, nil
	}

	out, err := applyJMESPath(body, expr)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeValidation, err, "filter failed")
	}
	return out, nil
}

// applyJMESPath applies a JMESPath expression to a JSON string
func applyJMESPath(jsonStr string, expression string) (string, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", fmt.Errorf("response is not JSON: %w", err)
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return "", fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(data)
	if err != nil {
		return "", fmt.Errorf("JMESPath search failed: %w", err)
	}

	if result == nil {
		return "null", nil
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	return string(output), nil
}

// runShell executes command with the body piped to stdin
func runShell(ctx context.Context, body string, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ShellTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdin = strings.NewReader(body)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := err.Error()
		if stderr.Len() > 0 {
			errMsg = strings.TrimSpace(stderr.String())
		}
		return "", fmt.Errorf("command '%s' failed: %s", command, errMsg)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// IsValidJMESPath checks if an expression is valid JMESPath syntax
func IsValidJMESPath(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}

// IsShellCommand checks if an expression is a shell command (starts with $(...))
func IsShellCommand(expr string) bool {
	return shellPattern.MatchString(strings.TrimSpace(expr))
}
