package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func waitForReady(ctx context.Context, endpoint string) error {
	timeout := 1 * time.Second
	client := http.Client{}
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			endpoint,
			nil,
		); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = client.Do(req); err == nil {
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// testLookupEnv builds the server configuration for tests: a random port, an in-memory
// database, no pprof listener, and the given completion endpoint.
func testLookupEnv(providerURL string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		switch key {
		case "WHODUNIT_ADDR":
			return "localhost:0", true
		case "WHODUNIT_PPROF_PORT":
			return "", true
		case "WHODUNIT_SQLITE_URL":
			return ":memory:", true
		case "AI_API_URL1":
			return providerURL, true
		case "AI_API_KEY1":
			return "test-key", true
		case "AI_API_MODEL1":
			return "test-model", true
		default:
			return "", false
		}
	}
}

type testServer struct {
	url    string
	client http.Client
}

// startTestServer starts the real server with the given environment, waits for it to be
// ready, and returns a handle for making requests against it.
func startTestServer(t *testing.T, lookupEnv func(string) (string, bool)) testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// We need to grab the dynamically allocated port from the log output.
	addrCh := make(chan string, 1)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "addr" {
				addrCh <- a.Value.String()
			}
			return a
		},
	})))

	// Start the server and wait for it to be ready.
	go func() {
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel()
			assert.NoError(t, err)
		}
	}()
	select {
	case <-ctx.Done():
		t.Fatal("server failed to start")
		return testServer{} //nolint:exhaustruct // This is unreachable.
	case addr := <-addrCh:
		serverURL := fmt.Sprintf("http://%s", addr)
		if err := waitForReady(ctx, fmt.Sprintf("%s/api/healthy", serverURL)); err != nil {
			require.NoError(t, err)
		}
		return testServer{
			url:    serverURL,
			client: http.Client{},
		}
	}
}

// Get fetches a URL and returns the response.
func (s *testServer) Get(t *testing.T, urlPath string) *http.Response {
	t.Helper()
	resp, err := s.client.Get(s.url + urlPath)
	require.NoError(t, err)
	return resp
}

// GetDoc fetches a URL and returns a goquery document.
func (s *testServer) GetDoc(t *testing.T, urlPath string) *goquery.Document {
	t.Helper()
	resp := s.Get(t, urlPath)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer func() {
		err := resp.Body.Close()
		require.NoError(t, err)
	}()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

// PostJSON posts a JSON-encodable body and returns the response.
func (s *testServer) PostJSON(t *testing.T, urlPath string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := s.client.Post(s.url+urlPath, "application/json", strings.NewReader(string(data)))
	require.NoError(t, err)
	return resp
}

// decodeJSON decodes a response body into v and closes the body.
func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() {
		require.NoError(t, resp.Body.Close())
	}()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// scriptedProvider is an OpenAI-compatible stub that answers case generation, dialogue
// and summary prompts with canned content and counts the calls it serves.
type scriptedProvider struct {
	server        *httptest.Server
	calls         atomic.Int32
	dialogueReply string
}

const testStoryJSON = `{
	"case": {"location": "遊艇甲板", "case_type": "兇殺案", "time": "深夜", "victim": "船長", "events": "晚宴後燈光熄滅，有人聽到落水聲。"},
	"roles": {}
}`

func newScriptedProvider(t *testing.T, dialogueReply string) *scriptedProvider {
	t.Helper()
	p := &scriptedProvider{dialogueReply: dialogueReply}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.calls.Add(1)

		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotEmpty(t, body.Messages)
		prompt := body.Messages[0].Content

		var content string
		switch {
		case strings.Contains(prompt, "輸出格式為JSON"):
			content = "```json\n" + testStoryJSON + "\n```"
		case strings.Contains(prompt, "生成總結"):
			content = "兇手因為債務糾紛在深夜下手，事後佯裝無辜。"
		default:
			content = p.dialogueReply
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(p.server.Close)
	return p
}

func (p *scriptedProvider) URL() string {
	return p.server.URL
}

func (p *scriptedProvider) Calls() int32 {
	return p.calls.Load()
}

// unreachableProviderURL points at a port nothing listens on so every provider call
// fails fast with a connection error.
const unreachableProviderURL = "http://127.0.0.1:1"
