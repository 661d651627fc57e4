package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"venue-recommender/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type countingCompleter struct {
	calls int32
	text  string
	err   error
}

func (c *countingCompleter) Complete(ctx context.Context, sys, prompt string) (string, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.text, c.err
}

func (c *countingCompleter) Calls() int {
	return int(atomic.LoadInt32(&c.calls))
}

func newGenerateServer(t *testing.T, handler func(w http.ResponseWriter, req generateRequest, attempt int)) (*httptest.Server, *int32) {
	t.Helper()
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		assert.Equal(t, generatePath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req, int(n))
	}))
	t.Cleanup(server.Close)
	return server, &attempts
}

func newHTTPCompleter(t *testing.T, baseURL string, retries int) *HTTPCompleter {
	return NewHTTPCompleter(&HTTPConfig{
		BaseURL:     baseURL,
		APIKey:      "secret",
		Timeout:     2 * time.Second,
		MaxRetries:  retries,
		MaxTokens:   200,
		Temperature: 0.5,
	}, logger.NewTestLogger(t))
}

// ==========================
// CompleteWithTimeout
// ==========================

func TestCompleteWithTimeout(t *testing.T) {
	t.Run("returns text from a fast backend", func(t *testing.T) {
		c := CompleterFunc(func(ctx context.Context, sys, prompt string) (string, error) {
			return sys + "|" + prompt, nil
		})
		text, err := CompleteWithTimeout(context.Background(), c, time.Second, "sys", "prompt")
		require.NoError(t, err)
		assert.Equal(t, "sys|prompt", text)
	})

	t.Run("abandons a backend that ignores its context", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		c := CompleterFunc(func(ctx context.Context, sys, prompt string) (string, error) {
			<-release
			return "late", nil
		})

		start := time.Now()
		_, err := CompleteWithTimeout(context.Background(), c, 50*time.Millisecond, "sys", "prompt")
		assert.ErrorIs(t, err, ErrCompletionTimeout)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("maps a deadline error from the backend to timeout", func(t *testing.T) {
		c := CompleterFunc(func(ctx context.Context, sys, prompt string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
		_, err := CompleteWithTimeout(context.Background(), c, 20*time.Millisecond, "sys", "prompt")
		assert.ErrorIs(t, err, ErrCompletionTimeout)
	})

	t.Run("passes through backend errors", func(t *testing.T) {
		c := &countingCompleter{err: ErrCircuitOpen}
		_, err := CompleteWithTimeout(context.Background(), c, time.Second, "sys", "prompt")
		assert.ErrorIs(t, err, ErrCircuitOpen)
	})

	t.Run("nil completer fails", func(t *testing.T) {
		_, err := CompleteWithTimeout(context.Background(), nil, time.Second, "sys", "prompt")
		assert.ErrorIs(t, err, ErrCompletionFailed)
	})
}

// ==========================
// HTTP Backend
// ==========================

func TestHTTPCompleter_Success(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "system text", req.System)
		assert.Equal(t, "user text", req.Prompt)
		assert.Equal(t, 200, req.MaxTokens)
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "xin chào"})
	}))
	defer server.Close()

	c := newHTTPCompleter(t, server.URL, 0)
	text, err := c.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, "xin chào", text)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestHTTPCompleter_RetriesThenSucceeds(t *testing.T) {
	server, attempts := newGenerateServer(t, func(w http.ResponseWriter, req generateRequest, attempt int) {
		if attempt == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "ok"})
	})

	c := newHTTPCompleter(t, server.URL, 2)
	text, err := c.Complete(context.Background(), "s", "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(2), atomic.LoadInt32(attempts))
}

func TestHTTPCompleter_Failures(t *testing.T) {
	tests := []struct {
		name         string
		retries      int
		handler      func(w http.ResponseWriter, req generateRequest, attempt int)
		wantErr      error
		wantAttempts int32
	}{
		{
			name:    "server errors exhaust retries",
			retries: 1,
			handler: func(w http.ResponseWriter, req generateRequest, attempt int) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr:      ErrCompletionFailed,
			wantAttempts: 2,
		},
		{
			name:    "empty text is not retried",
			retries: 3,
			handler: func(w http.ResponseWriter, req generateRequest, attempt int) {
				_ = json.NewEncoder(w).Encode(generateResponse{Text: "  "})
			},
			wantErr:      ErrCompletionFailed,
			wantAttempts: 1,
		},
		{
			name:    "malformed body",
			retries: 0,
			handler: func(w http.ResponseWriter, req generateRequest, attempt int) {
				_, _ = w.Write([]byte("not json"))
			},
			wantErr:      ErrCompletionFailed,
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, attempts := newGenerateServer(t, tt.handler)
			c := newHTTPCompleter(t, server.URL, tt.retries)

			_, err := c.Complete(context.Background(), "s", "p")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantAttempts, atomic.LoadInt32(attempts))
		})
	}
}

func TestHTTPCompleter_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	c := newHTTPCompleter(t, server.URL, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, "s", "p")
	assert.ErrorIs(t, err, ErrCompletionTimeout)
}

// ==========================
// Circuit Breaker
// ==========================

func TestBreakerCompleter_OpensAfterFailureRatio(t *testing.T) {
	backend := &countingCompleter{err: ErrCompletionFailed}

	var mu sync.Mutex
	var transitions []string
	observe := func(name, from, to string) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, from+"->"+to)
	}

	b := NewBreakerCompleter(backend, BreakerConfig{
		Name:         "test",
		MaxRequests:  1,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	}, observe, logger.NewTestLogger(t))

	_, err := b.Complete(context.Background(), "s", "p")
	assert.ErrorIs(t, err, ErrCompletionFailed)
	assert.Equal(t, "closed", b.State())

	_, err = b.Complete(context.Background(), "s", "p")
	assert.ErrorIs(t, err, ErrCompletionFailed)
	assert.Equal(t, "open", b.State())

	_, err = b.Complete(context.Background(), "s", "p")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, backend.Calls())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestBreakerCompleter_StaysClosedBelowMinRequests(t *testing.T) {
	backend := &countingCompleter{err: ErrCompletionFailed}
	b := NewBreakerCompleter(backend, BreakerConfig{
		MaxRequests:  1,
		Timeout:      time.Minute,
		FailureRatio: 0.1,
		MinRequests:  10,
	}, nil, logger.NewNoOpLogger())

	for i := 0; i < 5; i++ {
		_, _ = b.Complete(context.Background(), "s", "p")
	}
	assert.Equal(t, "closed", b.State())
	assert.Equal(t, 5, backend.Calls())
}

// ==========================
// Cache
// ==========================

func TestCacheKey(t *testing.T) {
	key := CacheKey("a", "b")
	assert.Regexp(t, `^genai:completion:[0-9a-f]{64}$`, key)
	assert.Equal(t, key, CacheKey("a", "b"))
	assert.NotEqual(t, key, CacheKey("ab", ""))
	assert.NotEqual(t, key, CacheKey("b", "a"))
}

func TestCachedCompleter_HitAfterMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	backend := &countingCompleter{text: "gợi ý"}
	c := NewCachedCompleter(backend, rdb, time.Minute, logger.NewTestLogger(t))

	first, err := c.Complete(context.Background(), "s", "p")
	require.NoError(t, err)
	second, err := c.Complete(context.Background(), "s", "p")
	require.NoError(t, err)

	assert.Equal(t, "gợi ý", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.Calls())

	stored, err := mr.Get(CacheKey("s", "p"))
	require.NoError(t, err)
	assert.Equal(t, "gợi ý", stored)
	assert.Equal(t, time.Minute, mr.TTL(CacheKey("s", "p")))
}

func TestCachedCompleter_DoesNotCacheErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	backend := &countingCompleter{err: ErrCompletionFailed}
	c := NewCachedCompleter(backend, rdb, time.Minute, logger.NewTestLogger(t))

	_, err := c.Complete(context.Background(), "s", "p")
	assert.ErrorIs(t, err, ErrCompletionFailed)
	assert.False(t, mr.Exists(CacheKey("s", "p")))
}

func TestCachedCompleter_ReadFailureFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	key := CacheKey("s", "p")
	mock.ExpectGet(key).SetErr(errors.New("connection reset"))
	mock.ExpectSet(key, "fresh", time.Minute).SetVal("OK")

	backend := &countingCompleter{text: "fresh"}
	c := NewCachedCompleter(backend, rdb, time.Minute, logger.NewTestLogger(t))

	text, err := c.Complete(context.Background(), "s", "p")
	require.NoError(t, err)
	assert.Equal(t, "fresh", text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Eino Adapter
// ==========================

type fakeGenerator struct {
	input []*schema.Message
	opts  []model.Option
	reply *schema.Message
	err   error
}

func (f *fakeGenerator) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.input = input
	f.opts = opts
	return f.reply, f.err
}

func TestEinoCompleter(t *testing.T) {
	t.Run("sends system and user messages", func(t *testing.T) {
		g := &fakeGenerator{reply: schema.AssistantMessage("trả lời", nil)}
		c := NewEinoCompleter(g, 300, 0.4)

		text, err := c.Complete(context.Background(), "sys", "prompt")
		require.NoError(t, err)
		assert.Equal(t, "trả lời", text)
		require.Len(t, g.input, 2)
		assert.Equal(t, schema.System, g.input[0].Role)
		assert.Equal(t, "sys", g.input[0].Content)
		assert.Equal(t, schema.User, g.input[1].Role)
		assert.Equal(t, "prompt", g.input[1].Content)
		assert.Len(t, g.opts, 2)
	})

	t.Run("wraps generator errors", func(t *testing.T) {
		g := &fakeGenerator{err: errors.New("quota exceeded")}
		_, err := NewEinoCompleter(g, 0, 0).Complete(context.Background(), "sys", "prompt")
		assert.ErrorIs(t, err, ErrCompletionFailed)
	})

	t.Run("empty content is a failure", func(t *testing.T) {
		g := &fakeGenerator{reply: schema.AssistantMessage("", nil)}
		_, err := NewEinoCompleter(g, 0, 0).Complete(context.Background(), "sys", "prompt")
		assert.ErrorIs(t, err, ErrCompletionFailed)
	})
}
