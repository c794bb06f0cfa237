package tui

import (
	"context"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
)

const timeoutHint = "Request timeout - check the URL or raise timeout in config.yaml (default: 30s)"

// failurePatterns maps substrings of transport errors to hints, checked in
// order. Proxy comes before connection errors since proxy failures often
// mention "connection refused".
var failurePatterns = []struct {
	needles []string
	hint    string
}{
	{[]string{"context canceled", "context cancelled"}, "Request cancelled"},
	{[]string{"deadline exceeded"}, timeoutHint},
	{[]string{"proxy"}, "Proxy connection failed - check HTTP_PROXY / HTTPS_PROXY"},
	{[]string{"no such host", "dial tcp: lookup"}, "DNS resolution failed - verify the hostname and network"},
	{[]string{"connection refused"}, "Connection refused - check that the server is running and the port is correct"},
	{[]string{"connection reset"}, "Connection reset by server"},
	{[]string{"network is unreachable", "no route to host"}, "Network unreachable - check the connection and firewall"},
	{[]string{"tls", "x509", "certificate"}, ""},
	{[]string{"redirects"}, "Too many redirects - check the server or disable follow_redirects"},
	{[]string{"unsupported protocol", "invalid url"}, "Invalid URL - include the scheme (http:// or https://)"},
	{[]string{"eof"}, "Connection closed unexpectedly by the server"},
	{[]string{"timeout", "timed out"}, "Connection timeout - server took too long to respond"},
}

// categorizeRequestError turns a transport error string into an actionable
// hint
func categorizeRequestError(errStr string) string {
	if errStr == "" {
		return ""
	}
	lower := strings.ToLower(errStr)

	for _, p := range failurePatterns {
		if !containsAny(lower, p.needles) {
			continue
		}
		if p.hint == "" {
			return categorizeTLSError(lower, errStr)
		}
		return p.hint
	}
	return "Request failed: " + errStr
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func categorizeTLSError(lower, errStr string) string {
	switch {
	case containsAny(lower, []string{"unknown authority", "not trusted"}):
		return "TLS certificate not trusted - set ca_file or insecure in config.yaml"
	case strings.Contains(lower, "expired"):
		return "TLS certificate has expired"
	case containsAny(lower, []string{"certificate is valid for", "doesn't match"}):
		return "TLS hostname mismatch - certificate doesn't match the requested host"
	case strings.Contains(lower, "handshake"):
		return "TLS handshake failed - check TLS version and cipher support"
	}
	return "TLS error: " + errStr
}

// categorizeError unwraps err to its root cause before falling back to
// string matching
func categorizeError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutHint
	}
	if errors.Is(err, context.Canceled) {
		return "Request cancelled"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return timeoutHint
	}

	var authorityErr x509.UnknownAuthorityError
	if errors.As(err, &authorityErr) {
		return "TLS certificate not trusted - set ca_file or insecure in config.yaml"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return "Connection timeout - server took too long to respond"
		}
		var errno syscall.Errno
		if errors.As(opErr.Err, &errno) {
			switch errno {
			case syscall.ECONNREFUSED:
				return "Connection refused - check that the server is running and the port is correct"
			case syscall.ECONNRESET:
				return "Connection reset by server"
			case syscall.ENETUNREACH, syscall.EHOSTUNREACH:
				return "Network unreachable - check the connection and firewall"
			}
		}
	}

	return categorizeRequestError(err.Error())
}
