package executor

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/types"
)

// DefaultTimeout bounds every call when Options.Timeout is unset
const DefaultTimeout = 30 * time.Second

// Options configures the HTTP client
type Options struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	CAFile             string
	FollowRedirects    bool
}

// DefaultOptions follows redirects and uses DefaultTimeout
func DefaultOptions() Options {
	return Options{Timeout: DefaultTimeout, FollowRedirects: true}
}

// Execute performs the HTTP call described by req
func Execute(ctx context.Context, req types.Request, opts Options) (*types.Response, error) {
	httpReq, requestSize, err := buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	client, err := buildHTTPClient(opts)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeConfig, err, "failed to configure HTTP client")
	}

	startTime := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return &types.Response{
			Error:       err.Error(),
			Duration:    time.Since(startTime),
			RequestSize: requestSize,
		}, errdef.Wrap(errdef.CodeNetwork, err, "%s %s", req.Method, req.Details.URL)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	duration := time.Since(startTime)

	headers := make(map[string]string)
	for key, values := range resp.Header {
		headers[key] = strings.Join(values, ", ")
	}

	result := &types.Response{
		Status:       resp.StatusCode,
		StatusText:   statusText(resp),
		Headers:      headers,
		Body:         string(bodyBytes),
		Duration:     duration,
		RequestSize:  requestSize,
		ResponseSize: len(bodyBytes),
	}
	if err != nil {
		result.Error = fmt.Sprintf("failed to read response body: %v", err)
		return result, errdef.Wrap(errdef.CodeNetwork, err, "failed to read response body")
	}

	return result, nil
}

func buildRequest(ctx context.Context, req types.Request) (*http.Request, int, error) {
	raw := strings.TrimSpace(req.Details.URL)
	if raw == "" {
		return nil, 0, errdef.New(errdef.CodeValidation, "url is required")
	}

	target, err := url.Parse(raw)
	if err != nil {
		return nil, 0, errdef.Wrap(errdef.CodeValidation, err, "invalid url")
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, 0, errdef.New(errdef.CodeValidation, "url %q needs a scheme and host", raw)
	}

	if len(req.Details.Params) > 0 {
		query := target.Query()
		for key, value := range req.Details.Params {
			query.Set(key, value)
		}
		target.RawQuery = query.Encode()
	}

	var bodyReader io.Reader
	requestSize := 0
	if req.Method != types.MethodGet && req.Details.Body != "" {
		bodyReader = bytes.NewBufferString(req.Details.Body)
		requestSize = len(req.Details.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method.String(), target.String(), bodyReader)
	if err != nil {
		return nil, 0, errdef.Wrap(errdef.CodeValidation, err, "failed to create request")
	}

	for key, value := range req.Details.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, requestSize, nil
}

// statusText drops the numeric prefix net/http puts in Status
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

// buildHTTPClient creates an HTTP client with optional TLS configuration
func buildHTTPClient(opts Options) (*http.Client, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}

	if opts.InsecureSkipVerify || opts.CAFile != "" {
		tlsCfg := &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify,
		}

		if opts.CAFile != "" {
			caCert, err := os.ReadFile(opts.CAFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read CA certificate: %w", err)
			}
			caCertPool := x509.NewCertPool()
			if !caCertPool.AppendCertsFromPEM(caCert) {
				return nil, fmt.Errorf("failed to parse CA certificate")
			}
			tlsCfg.RootCAs = caCertPool
		}

		transport.TLSClientConfig = tlsCfg
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
	if !opts.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client, nil
}

// FormatDuration formats a duration to a human-readable string
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	seconds := float64(ms) / 1000.0
	return fmt.Sprintf("%.2fs", seconds)
}

// FormatSize formats byte size to human-readable string
func FormatSize(bytes int) string {
	if bytes < 1024 {
		return fmt.Sprintf("%dB", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.2fKB", float64(bytes)/1024.0)
	}
	return fmt.Sprintf("%.2fMB", float64(bytes)/(1024.0*1024.0))
}

// IsSuccessStatus returns true if status code is 2xx
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}

// IsClientErrorStatus returns true if status code is 4xx
func IsClientErrorStatus(status int) bool {
	return status >= 400 && status < 500
}

// IsServerErrorStatus returns true if status code is 5xx
func IsServerErrorStatus(status int) bool {
	return status >= 500 && status < 600
}
