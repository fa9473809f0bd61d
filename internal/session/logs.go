package session

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"
)

const redactedMarker = "REDACTED"

// Headers whose values must never be stored as-is
var sensitiveHeaders = map[string]bool{
	"x-api-key":     true,
	"x-auth-key":    true,
	"authorization": true,
	"api-key":       true,
}

// RequestLog records one outbound call attempt
type RequestLog struct {
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Method    string            `json:"method" yaml:"method"`
	URL       string            `json:"url" yaml:"url"`
	Headers   map[string]string `json:"headers" yaml:"headers"`
	Body      json.RawMessage   `json:"body,omitempty" yaml:"-"`
}

// ResponseLog records the reply to a RequestLog
type ResponseLog struct {
	Timestamp  time.Time         `json:"timestamp" yaml:"timestamp"`
	StatusCode int               `json:"status_code" yaml:"status_code"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       json.RawMessage   `json:"body,omitempty" yaml:"-"`
	ElapsedMS  float64           `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// NewRequestLog captures a request with sensitive headers redacted
func NewRequestLog(at time.Time, method, url string, header http.Header, body []byte) RequestLog {
	return RequestLog{
		Timestamp: at,
		Method:    method,
		URL:       url,
		Headers:   RedactHeaders(header),
		Body:      rawBody(body),
	}
}

// NewResponseLog captures a response with sensitive headers redacted
func NewResponseLog(at time.Time, status int, header http.Header, body []byte, elapsed time.Duration) ResponseLog {
	return ResponseLog{
		Timestamp:  at,
		StatusCode: status,
		Headers:    RedactHeaders(header),
		Body:       rawBody(body),
		ElapsedMS:  float64(elapsed.Microseconds()) / 1000,
	}
}

// RedactHeaders flattens header into a map, masking credential values
func RedactHeaders(header http.Header) map[string]string {
	if len(header) == 0 {
		return nil
	}
	out := make(map[string]string, len(header))
	for name, values := range header {
		value := strings.Join(values, ", ")
		if IsSensitiveHeader(name) {
			value = RedactValue(value)
		}
		out[name] = value
	}
	return out
}

// IsSensitiveHeader reports whether a header carries a credential
func IsSensitiveHeader(name string) bool {
	return sensitiveHeaders[strings.ToLower(name)]
}

// RedactValue hides a credential. Only values long enough to stay
// unguessable keep a short prefix for correlation.
func RedactValue(v string) string {
	if len(v) <= 16 {
		return redactedMarker
	}
	return v[:4] + "..." + redactedMarker
}

// HeaderNames returns the logged header names sorted for display
func (r RequestLog) HeaderNames() []string {
	names := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// rawBody keeps JSON bodies structured and quotes anything else
func rawBody(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		cp := make([]byte, len(body))
		copy(cp, body)
		return cp
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
