package handler

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/devblog/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// pingTimeout bounds the store check behind the status panel.
const pingTimeout = 2 * time.Second

// Pinger is anything that can report store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the result of a store check, shown in the shell's status
// panel and returned by /api/status.
type Status struct {
	Store string `json:"store"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ShellHandler renders the root page and the status endpoint.
//
// The page is a static frame (header, a main card with the status panel,
// footer); post lists and editors are client-side components mounted into
// it and talk to the JSON API.
type ShellHandler struct {
	templates   *template.Template
	store       Pinger
	driver      string
	authEnabled bool
	now         func() time.Time
	logger      *slog.Logger
}

// NewShellHandler parses the embedded templates. base.html defines the
// page frame with a {{template "content" .}} slot that shell.html fills.
func NewShellHandler(store Pinger, driver string, authEnabled bool, logger *slog.Logger) (*ShellHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/shell.html")
	if err != nil {
		return nil, err
	}

	return &ShellHandler{
		templates:   tmpl,
		store:       store,
		driver:      driver,
		authEnabled: authEnabled,
		now:         time.Now,
		logger:      logger,
	}, nil
}

func (h *ShellHandler) check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	st := Status{Store: h.driver, OK: true}
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("store status check failed", slog.String("error", err.Error()))
		st.OK = false
		st.Error = err.Error()
	}
	return st
}

// HandleShell serves the root page.
//
// HTTP: GET /
func (h *ShellHandler) HandleShell(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":       "My Dev Blog",
		"Year":        h.now().Year(),
		"Status":      h.check(r.Context()),
		"AuthEnabled": h.authEnabled,
		"Categories":  model.Categories,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := h.templates.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HandleStatus reports store reachability as JSON. An unreachable store is
// 503 so load balancers can act on it.
//
// HTTP: GET /api/status
func (h *ShellHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st := h.check(r.Context())
	status := http.StatusOK
	if !st.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}
