package handler_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	name string
	data string
}

// readEvents parses the stream into events until it ends. Comment lines
// (keep-alives) are skipped.
func readEvents(body *bufio.Scanner, out chan<- sseEvent) {
	defer close(out)
	var ev sseEvent
	for body.Scan() {
		line := body.Text()
		switch {
		case line == "":
			if ev.name != "" {
				out <- ev
			}
			ev = sseEvent{}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func nextEvent(t *testing.T, events <-chan sseEvent) sseEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "stream closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return sseEvent{}
	}
}

func TestStreamHandler_PushesSnapshots(t *testing.T) {
	env := newTestEnv(t)
	createPost(t, env, "before", env.alice)

	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/posts/stream?category=tech", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	events := make(chan sseEvent, 8)
	go readEvents(bufio.NewScanner(resp.Body), events)

	initial := nextEvent(t, events)
	assert.Equal(t, "posts", initial.name)
	assert.Contains(t, initial.data, `"title":"before"`)

	createPost(t, env, "after", env.alice)

	live := nextEvent(t, events)
	assert.Equal(t, "posts", live.name)
	assert.Contains(t, live.data, `"title":"after"`)
	assert.Less(t, strings.Index(live.data, `"after"`), strings.Index(live.data, `"before"`),
		"newest post comes first")
}

func TestStreamHandler_BadQuery(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/posts/stream?category=news", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"category"`)
}

func TestStreamHandler_ShutdownEndsStreams(t *testing.T) {
	env := newTestEnv(t)

	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/posts/stream")
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := make(chan sseEvent, 8)
	go readEvents(bufio.NewScanner(resp.Body), events)
	assert.Equal(t, "posts", nextEvent(t, events).name)

	env.stream.Shutdown()
	env.stream.Shutdown()

	select {
	case _, ok := <-events:
		assert.False(t, ok, "no further events after shutdown")
	case <-time.After(5 * time.Second):
		t.Fatal("stream stayed open after shutdown")
	}

	rec := env.do(t, http.MethodGet, "/api/posts/stream", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
