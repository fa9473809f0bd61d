//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/cloo-solutions/podquery/internal/api/handlers"
	"github.com/cloo-solutions/podquery/internal/fixtures"
	"github.com/cloo-solutions/podquery/internal/interpreter"
	"github.com/cloo-solutions/podquery/internal/llm"
	"github.com/cloo-solutions/podquery/internal/pipeline"
	"github.com/cloo-solutions/podquery/internal/podcastindex"
	"github.com/cloo-solutions/podquery/internal/server"
	"github.com/cloo-solutions/podquery/internal/session"
)

// Credentials the fake upstreams expect
const (
	AnthropicKey       = "sk-ant-REDACTED"
	PodcastIndexKey    = "UXKCGDSYGUUEVQJSYDZH"
	PodcastIndexSecret = "yzJe2eE7XV-3eY576dyRZ6wXyAbndh6LUrCZ8KN"

	// APIErrorInput makes the fake model answer with an API error
	APIErrorInput = "please fail upstream"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	Anthropic    *httptest.Server
	PodcastIndex *httptest.Server
	History      *session.History
	ServerURL    string
	ServerCloser func()
	BinaryDir    string
	HTTPClient   *http.Client

	modelCalls  atomic.Int64
	searchCalls atomic.Int64
}

// SetupE2EEnv starts fake upstreams and a podquery server wired to them
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	env := &E2ETestEnv{
		T:          t,
		Ctx:        context.Background(),
		History:    session.NewHistory(),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	env.Anthropic = httptest.NewServer(http.HandlerFunc(env.serveModel))
	env.PodcastIndex = httptest.NewServer(http.HandlerFunc(env.serveSearch))

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}
	env.ServerURL, env.ServerCloser = env.startServer(port)

	return env
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	e.Anthropic.Close()
	e.PodcastIndex.Close()
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// ModelCalls returns how many requests reached the fake model
func (e *E2ETestEnv) ModelCalls() int64 {
	return e.modelCalls.Load()
}

// SearchCalls returns how many requests reached the fake PodcastIndex
func (e *E2ETestEnv) SearchCalls() int64 {
	return e.searchCalls.Load()
}

// serveModel answers built-in cases with their expected interpretation.
func (e *E2ETestEnv) serveModel(w http.ResponseWriter, r *http.Request) {
	e.modelCalls.Add(1)
	w.Header().Set("Content-Type", "application/json")

	if r.Header.Get("x-api-key") != AnthropicKey {
		writeReply(w, fixtures.MustReply(fixtures.ReplyAPIError))
		return
	}

	body, _ := io.ReadAll(r.Body)
	var input string
	gjson.GetBytes(body, "messages").ForEach(func(_, m gjson.Result) bool {
		if m.Get("role").String() == llm.RoleUser {
			input = m.Get("content").String()
			return false
		}
		return true
	})

	if input == APIErrorInput {
		writeReply(w, fixtures.MustReply(fixtures.ReplyAPIError))
		return
	}
	for _, tc := range fixtures.Cases() {
		if tc.Input == input {
			writeReply(w, fixtures.SuccessReply(tc.ExpectedCategory, tc.ExpectedQuery, tc.Description))
			return
		}
	}
	writeReply(w, fixtures.MustReply(fixtures.ReplyUnknownCategory))
}

// serveSearch checks the PodcastIndex signature before answering.
func (e *E2ETestEnv) serveSearch(w http.ResponseWriter, r *http.Request) {
	e.searchCalls.Add(1)
	w.Header().Set("Content-Type", "application/json")

	ts, _ := strconv.ParseInt(r.Header.Get(podcastindex.HeaderAuthDate), 10, 64)
	if r.Header.Get(podcastindex.HeaderAuthKey) != PodcastIndexKey ||
		r.Header.Get(podcastindex.HeaderAuthorization) != podcastindex.Signature(PodcastIndexKey, PodcastIndexSecret, ts) {
		p, _ := fixtures.LookupSearchPayload(fixtures.SearchUpstreamError)
		w.WriteHeader(p.Status)
		_, _ = w.Write([]byte(p.Body))
		return
	}

	p, _ := fixtures.LookupSearchPayload(fixtures.SearchThreeFeedsNoCount)
	w.WriteHeader(p.Status)
	_, _ = w.Write([]byte(p.Body))
}

func writeReply(w http.ResponseWriter, r fixtures.Reply) {
	w.WriteHeader(r.Status)
	_, _ = w.Write([]byte(r.Body))
}

func (e *E2ETestEnv) startServer(port int) (string, func()) {
	logger := zerolog.Nop()

	interp := interpreter.NewClient(llm.NewAnthropicTransport(llm.AnthropicConfig{
		APIKey:  AnthropicKey,
		BaseURL: e.Anthropic.URL,
	}), interpreter.Config{History: e.History, Logger: logger})

	searcher, err := podcastindex.NewClient(podcastindex.Config{
		APIKey:    PodcastIndexKey,
		APISecret: PodcastIndexSecret,
		BaseURL:   e.PodcastIndex.URL,
		History:   e.History,
		Logger:    logger,
	})
	if err != nil {
		e.T.Fatalf("failed to create search client: %v", err)
	}

	p := pipeline.New(interp, pipeline.Options{Searcher: searcher, Logger: logger})
	router := server.NewRouter(server.RouterConfig{
		QueryHandler: handlers.NewQueryHandler(p, e.History),
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.T.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(e.T, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		interp.Close()
		searcher.Close()
	}
}

// BuildBinaries builds podquery and podqueryd into a temp dir
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "podquery-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	for _, name := range []string{"podquery", "podqueryd"} {
		cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, name), "./cmd/"+name)
		cmd.Dir = "../.."
		if out, err := cmd.CombinedOutput(); err != nil {
			e.T.Fatalf("failed to build %s: %v\n%s", name, err, out)
		}
	}
}

// RunPodquery runs the podquery CLI against the fake upstreams and
// returns its stdout and stderr
func (e *E2ETestEnv) RunPodquery(extraEnv []string, args ...string) (string, string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "podquery"), args...)
	cmd.Dir = e.T.TempDir()
	cmd.Env = append(os.Environ(),
		"ANTHROPIC_API_KEY="+AnthropicKey,
		"PODQUERY_ANTHROPIC_BASE_URL="+e.Anthropic.URL,
		"PODCASTINDEX_API_KEY="+PodcastIndexKey,
		"PODCASTINDEX_API_SECRET="+PodcastIndexSecret,
		"PODQUERY_PODCASTINDEX_BASE_URL="+e.PodcastIndex.URL,
		"PODQUERY_SERVER_URL=",
	)
	cmd.Env = append(cmd.Env, extraEnv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), stderr.String(), fmt.Errorf("podquery %s: %w\n%s", strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), stderr.String(), nil
}

// APIResponse represents a standard API response
type APIResponse struct {
	StatusCode int             `json:"-"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest(http.MethodPost, path, body)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path string) (*APIResponse, error) {
	return e.doRequest(http.MethodDelete, path, nil)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(e.Ctx, method, e.ServerURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{StatusCode: resp.StatusCode}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, apiResp); err != nil {
			return nil, fmt.Errorf("failed to parse response (status %d): %s", resp.StatusCode, respBody)
		}
	}
	return apiResp, nil
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
