package analysis

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starscope/internal/models"
	"starscope/internal/registry"
	"starscope/internal/utils"
)

// recordingSink captures callbacks and asserts the terminal contract.
type recordingSink struct {
	mu            sync.Mutex
	tokens        []string
	result        *Result
	err           error
	terminalCalls int
	tokenAfterEnd bool
}

func (s *recordingSink) OnToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminalCalls > 0 {
		s.tokenAfterEnd = true
	}
	s.tokens = append(s.tokens, token)
}

func (s *recordingSink) OnComplete(result Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminalCalls++
	s.result = &result
}

func (s *recordingSink) OnError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminalCalls++
	s.err = err
}

// assertContract verifies zero or more tokens followed by exactly one
// terminal callback and nothing after it.
func (s *recordingSink) assertContract(t *testing.T) {
	t.Helper()
	assert.Equal(t, 1, s.terminalCalls, "expected exactly one terminal callback")
	assert.False(t, s.tokenAfterEnd, "token fired after terminal callback")
}

func testAnalyzer() *Analyzer {
	return newAnalyzer(&http.Client{}, utils.NewLogger("test"), 0)
}

func testRepo() models.Repository {
	return models.Repository{
		FullName:    "acme/widget",
		Description: "A widget",
		Language:    "Go",
		Stars:       42,
		Topics:      []string{"cli", "tool"},
	}
}

func sseBody(chunks ...string) string {
	out := ""
	for _, c := range chunks {
		out += "data: " + c + "\n\n"
	}
	return out + "data: [DONE]\n\n"
}

func TestOpenAIStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(
			`{"choices":[{"delta":{"content":"Hello"}}]}`,
			`{"choices":[{"delta":{"content":""}}]}`,
			`{"choices":[{"delta":{"content":" world"}}]}`,
		))
	}))
	defer server.Close()

	sink := &recordingSink{}
	err := testAnalyzer().AnalyzeRepository(context.Background(), testRepo(), Config{
		Provider:   registry.OpenAI,
		Credential: "sk-test",
		Endpoint:   server.URL,
	}, sink)
	require.NoError(t, err)

	sink.assertContract(t)
	require.NotNil(t, sink.result)
	assert.Equal(t, []string{"Hello", " world"}, sink.tokens)
	assert.Equal(t, "Hello world", sink.result.Content)
	assert.Equal(t, registry.OpenAI, sink.result.Provider)
	assert.Equal(t, "gpt-4-turbo", sink.result.Model)
	assert.Positive(t, sink.result.TokenCount)
	assert.Positive(t, sink.result.Cost)
}

func TestOpenAIUsesReportedUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseBody(
			`{"choices":[{"delta":{"content":"hi"}}]}`,
			`{"choices":[],"usage":{"prompt_tokens":100,"completion_tokens":250}}`,
		))
	}))
	defer server.Close()

	sink := &recordingSink{}
	err := testAnalyzer().AnalyzeRepository(context.Background(), testRepo(), Config{
		Provider:   registry.OpenAI,
		Credential: "sk-test",
		Model:      "gpt-4",
		Endpoint:   server.URL,
	}, sink)
	require.NoError(t, err)

	sink.assertContract(t)
	require.NotNil(t, sink.result)
	// Output tokens come from the provider; input stays heuristic.
	inputTokens := sink.result.TokenCount - 250
	assert.Positive(t, inputTokens)
	wantCost := registry.EstimateCost(registry.OpenAI, "gpt-4", inputTokens, 250)
	assert.InDelta(t, wantCost, sink.result.Cost, 1e-9)
}

func TestOpenAIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	sink := &recordingSink{}
	err := testAnalyzer().AnalyzeRepository(context.Background(), testRepo(), Config{
		Provider:   registry.OpenAI,
		Credential: "sk-bad",
		Endpoint:   server.URL,
	}, sink)
	require.NoError(t, err)

	sink.assertContract(t)
	require.Error(t, sink.err)
	assert.Contains(t, sink.err.Error(), "401")
	assert.Empty(t, sink.tokens)
}

func TestAnthropicStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		fmt.Fprint(w, sseBody(
			`{"type":"message_start","message":{"usage":{"input_tokens":120}}}`,
			`{"type":"content_block_start"}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"Deep"}}`,
			`{"type":"content_block_delta","delta":{"type":"other_delta","text":"ignored"}}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":" analysis"}}`,
			`{"type":"message_delta","usage":{"output_tokens":300}}`,
			`{"type":"message_stop"}`,
		))
	}))
	defer server.Close()

	sink := &recordingSink{}
	err := testAnalyzer().AnalyzeRepository(context.Background(), testRepo(), Config{
		Provider:   registry.Anthropic,
		Credential: "sk-ant",
		Endpoint:   server.URL,
	}, sink)
	require.NoError(t, err)

	sink.assertContract(t)
	require.NotNil(t, sink.result)
	assert.Equal(t, []string{"Deep", " analysis"}, sink.tokens)
	assert.Equal(t, "Deep analysis", sink.result.Content)
	// Usage is authoritative: 120 in + 300 out.
	assert.Equal(t, 420, sink.result.TokenCount)
	wantCost := registry.EstimateCost(registry.Anthropic, "claude-3-sonnet-20240229", 120, 300)
	assert.InDelta(t, wantCost, sink.result.Cost, 1e-9)
}

func TestCohereSimulatedStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		fmt.Fprint(w, `{"text":"0123456789ab"}`)
	}))
	defer server.Close()

	sink := &recordingSink{}
	err := testAnalyzer().AnalyzeRepository(context.Background(), testRepo(), Config{
		Provider:   registry.Cohere,
		Credential: "co-key",
		Endpoint:   server.URL,
	}, sink)
	require.NoError(t, err)

	sink.assertContract(t)
	// 12 characters replayed in 5-character slices.
	assert.Equal(t, []string{"01234", "56789", "ab"}, sink.tokens)
	require.NotNil(t, sink.result)
	assert.Equal(t, "0123456789ab", sink.result.Content)
}

func TestGoogleGenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-pro:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Gemini says hi"}]}}]}`)
	}))
	defer server.Close()

	sink := &recordingSink{}
	err := testAnalyzer().AnalyzeRepository(context.Background(), testRepo(), Config{
		Provider:   registry.Google,
		Credential: "g-key",
		Endpoint:   server.URL,
	}, sink)
	require.NoError(t, err)

	sink.assertContract(t)
	require.NotNil(t, sink.result)
	assert.Equal(t, "Gemini says hi", sink.result.Content)
	assert.Positive(t, sink.result.Cost)
}

func TestHuggingFaceArrayResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"generated_text":"open source answer"}]`)
	}))
	defer server.Close()

	sink := &recordingSink{}
	err := testAnalyzer().AnalyzeRepository(context.Background(), testRepo(), Config{
		Provider:   registry.HuggingFace,
		Credential: "hf-key",
		Endpoint:   server.URL,
	}, sink)
	require.NoError(t, err)

	sink.assertContract(t)
	require.NotNil(t, sink.result)
	assert.Equal(t, "open source answer", sink.result.Content)
	// Free tier: no pricing entry, so zero cost.
	assert.Zero(t, sink.result.Cost)
}

func TestOllamaNDJSONStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		fmt.Fprint(w, `{"response":"local "}
not json at all
{"partial
{"response":"model","done":false}
{"done":true}
`)
	}))
	defer server.Close()

	sink := &recordingSink{}
	err := testAnalyzer().AnalyzeRepository(context.Background(), testRepo(), Config{
		Provider: registry.Ollama,
		Endpoint: server.URL,
	}, sink)
	require.NoError(t, err)

	sink.assertContract(t)
	require.NotNil(t, sink.result)
	// Malformed lines are skipped without failing the stream.
	assert.Equal(t, []string{"local ", "model"}, sink.tokens)
	assert.Equal(t, "local model", sink.result.Content)
	assert.Zero(t, sink.result.Cost)
}

func TestLocalProviderCostIsZero(t *testing.T) {
	// Scenario: a zero-pricing local provider over the OpenAI-compatible
	// protocol yields a zero-cost result.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprint(w, sseBody(`{"choices":[{"delta":{"content":"free as in beer"}}]}`))
	}))
	defer server.Close()

	sink := &recordingSink{}
	err := testAnalyzer().AnalyzeRepository(context.Background(), testRepo(), Config{
		Provider: registry.LMStudio,
		Endpoint: server.URL,
	}, sink)
	require.NoError(t, err)

	sink.assertContract(t)
	require.NotNil(t, sink.result)
	assert.Zero(t, sink.result.Cost)
	assert.Equal(t, registry.LMStudio, sink.result.Provider)
}

func TestConfigurationErrors(t *testing.T) {
	a := testAnalyzer()
	sink := &recordingSink{}

	t.Run("unknown provider fails before any network call", func(t *testing.T) {
		err := a.AnalyzeRepository(context.Background(), testRepo(), Config{
			Provider: "not-a-real-provider",
		}, sink)
		require.Error(t, err)
		assert.ErrorIs(t, err, registry.ErrUnknownProvider)
	})

	t.Run("missing credential", func(t *testing.T) {
		err := a.AnalyzeRepository(context.Background(), testRepo(), Config{
			Provider: registry.OpenAI,
		}, sink)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingCredential)
	})

	t.Run("custom provider without endpoint", func(t *testing.T) {
		err := a.AnalyzeRepository(context.Background(), testRepo(), Config{
			Provider:   registry.Custom,
			Credential: "key",
		}, sink)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingEndpoint)
	})

	// No callback fired for any configuration error.
	assert.Zero(t, sink.terminalCalls)
	assert.Empty(t, sink.tokens)
}

func TestGuardedSinkTerminalOnce(t *testing.T) {
	inner := &recordingSink{}
	gs := newGuardedSink(inner, utils.NewLogger("test"), "req-1")

	gs.OnToken("a")
	gs.OnToken("") // empty deltas never reach the caller
	gs.OnComplete(Result{Content: "a"})
	gs.OnError(fmt.Errorf("late"))
	gs.OnComplete(Result{Content: "b"})
	gs.OnToken("late token")

	assert.Equal(t, []string{"a"}, inner.tokens)
	assert.Equal(t, 1, inner.terminalCalls)
	require.NotNil(t, inner.result)
	assert.Equal(t, "a", inner.result.Content)
	assert.NoError(t, inner.err)
}

func TestChunkAndDelayCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	err := chunkAndDelay(ctx, "0123456789", sink, 10*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	// The first slice went out before the cancellation was observed.
	assert.Equal(t, []string{"01234"}, sink.tokens)
}

func TestValidateCredentialLocalReachability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
	}))
	defer server.Close()

	a := testAnalyzer()
	ok := a.ValidateCredential(context.Background(), Config{
		Provider: registry.Ollama,
		Endpoint: server.URL,
	})
	assert.True(t, ok)

	server.Close()
	ok = a.ValidateCredential(context.Background(), Config{
		Provider: registry.Ollama,
		Endpoint: server.URL,
	})
	assert.False(t, ok)
}
