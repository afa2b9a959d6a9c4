package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/repository"
	"github.com/sakif/devblog/internal/service"
)

// keepAliveInterval is how often an idle stream sends an SSE comment so
// proxies do not drop the connection.
const keepAliveInterval = 25 * time.Second

// StreamHandler serves the live post feed as server-sent events.
type StreamHandler struct {
	posts  *service.PostService
	logger *slog.Logger

	done     chan struct{}
	shutdown sync.Once
}

func NewStreamHandler(posts *service.PostService, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{posts: posts, logger: logger, done: make(chan struct{})}
}

// Shutdown ends every open stream and refuses new ones. http.Server.Shutdown
// does not cancel request contexts, so the server registers this with
// RegisterOnShutdown. Safe to call more than once.
func (h *StreamHandler) Shutdown() {
	h.shutdown.Do(func() { close(h.done) })
}

// HandleStream subscribes to the newest posts and pushes every snapshot.
//
// HTTP: GET /api/posts/stream?category=tech&limit=20
//
// EVENT FORMAT:
//
//	event: posts
//	data: [{"id":"...","title":"...",...}]
//
// The first event is the current snapshot. A failed subscription sends one
// "event: error" and closes the stream; the client reconnects if it wants.
// Server shutdown closes the stream without an event.
// A slow client only ever sees the latest snapshot.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, fmt.Errorf("streaming unsupported by %T", w))
		return
	}

	select {
	case <-h.done:
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "shutting_down", Message: "server is shutting down"})
		return
	default:
	}

	category, err := queryCategory(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	snapshots := make(chan []model.PostSummary, 1)
	failures := make(chan error, 1)

	unsubscribe, err := h.posts.Subscribe(r.Context(), repository.SubscribeOptions{
		Category: category,
		Limit:    limit,
		OnError: func(err error) {
			select {
			case failures <- err:
			default:
			}
		},
	}, func(posts []model.PostSummary) {
		// Replace an undelivered snapshot with the newer one.
		select {
		case <-snapshots:
		default:
		}
		snapshots <- posts
	})
	if err != nil {
		writeError(w, err)
		return
	}
	defer unsubscribe()

	// The server's WriteTimeout would cut the stream off.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", slog.String("error", err.Error()))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-h.done:
			return

		case posts := <-snapshots:
			if err := writeEvent(w, "posts", posts); err != nil {
				return
			}
			flusher.Flush()

		case err := <-failures:
			h.logger.Warn("post stream ended by subscription error", slog.String("error", err.Error()))
			writeEvent(w, "error", ErrorResponse{Error: "subscription_error", Message: "live updates stopped"})
			flusher.Flush()
			return

		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent writes one SSE event with a JSON payload.
func writeEvent(w io.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
