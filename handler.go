// Package facethttp implements the HTTP transport of the server-driven
// UI protocol: renderers POST event batches as JSON and receive the flat
// ordered action array in response. In development it can additionally
// serve a Server-Sent Events stream that tells renderers to reload when
// the generated bundle changes.
package facethttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/google/uuid"

	"github.com/openfacet/facet-go/auth"
	"github.com/openfacet/facet-go/dispatch"
	"github.com/openfacet/facet-go/internal/logctx"
	"github.com/openfacet/facet-go/reload"
)

var _ http.Handler = (*Handler)(nil)

var (
	jsonMediaType         = contenttype.NewMediaType("application/json")
	eventStreamMediaType  = contenttype.NewMediaType("text/event-stream")
	eventStreamMediaTypes = []contenttype.MediaType{eventStreamMediaType}
)

const (
	authorizationHeader   = "authorization"
	wwwAuthenticateHeader = "www-authenticate"

	defaultRequestTimeout = 15 * time.Second
	defaultMaxBodyBytes   = 1 << 20
)

// Config configures the transport handler.
type Config struct {
	// ServerURL is the fully qualified URL of the UI endpoint.
	ServerURL string

	// Handler is the application event handler driven by the dispatcher.
	Handler dispatch.Handler

	// Authenticator optionally gates requests with bearer-token
	// authentication. Nil disables authentication.
	Authenticator auth.Authenticator

	// Reload optionally enables the GET dev-reload event stream.
	Reload *reload.Watcher

	// LogHandler is an optional slog.Handler. If nil, logging is
	// discarded.
	LogHandler slog.Handler

	// RequestTimeout bounds the handling of one event batch. Defaults to
	// 15s.
	RequestTimeout time.Duration

	// MaxBodyBytes bounds the request body size. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Handler serves the UI protocol endpoint.
type Handler struct {
	mux          *http.ServeMux
	log          *slog.Logger
	dispatcher   *dispatch.Dispatcher
	auth         auth.Authenticator
	reload       *reload.Watcher
	serverURL    *url.URL
	timeout      time.Duration
	maxBodyBytes int64
}

type writeFlusher interface {
	io.Writer
	http.Flusher
}

// NewHandler builds the transport around an application handler.
func NewHandler(config Config) (*Handler, error) {
	if config.Handler == nil {
		return nil, fmt.Errorf("handler is required")
	}

	serverURL, err := url.Parse(config.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", config.ServerURL, err)
	}
	if serverURL.Scheme != "https" && serverURL.Scheme != "http" {
		return nil, fmt.Errorf("server URL must use HTTP or HTTPS scheme, got %q", serverURL.Scheme)
	}

	logHandler := slog.DiscardHandler
	if config.LogHandler != nil {
		logHandler = config.LogHandler
	}
	log := slog.New(logctx.Handler{Handler: logHandler})

	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	maxBodyBytes := config.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}

	h := &Handler{
		log:          log,
		dispatcher:   dispatch.New(config.Handler, dispatch.WithLogger(log)),
		auth:         config.Authenticator,
		reload:       config.Reload,
		serverURL:    serverURL,
		timeout:      timeout,
		maxBodyBytes: maxBodyBytes,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(fmt.Sprintf("POST %s", hostPath(serverURL)), h.handleEvents)
	if h.reload != nil {
		mux.HandleFunc(fmt.Sprintf("GET %s", hostPath(serverURL)), h.handleReloadStream)
	}
	h.mux = mux

	return h, nil
}

// hostPath takes a url.URL and returns the host and path components
// concatenated, in the form the ServeMux pattern syntax expects.
func hostPath(u *url.URL) string {
	path := u.Path
	if path == "" || path == "/" {
		path = "/{$}"
	}
	return u.Hostname() + path
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handleEvents accepts one event batch and responds with the flat action
// array. Protocol-level failures are folded into the action array by the
// dispatcher; only transport-level problems surface as HTTP errors.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ctx = logctx.WithRequestData(ctx, &logctx.RequestData{
		RequestID:  uuid.NewString(),
		RemoteAddr: r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	})

	if h.auth != nil {
		if userInfo := h.checkAuthentication(ctx, r, w); userInfo == nil {
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	actions := h.dispatcher.HandleRequest(ctx, body)

	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(actions); err != nil {
		// Headers are already written; nothing to do beyond logging.
		h.log.ErrorContext(ctx, "failed to write response", slog.String("err", err.Error()))
	}
}

// handleReloadStream serves the development reload stream. Each bundle
// change produces one "reload" SSE event.
func (h *Handler) handleReloadStream(w http.ResponseWriter, r *http.Request) {
	_, _, err := contenttype.GetAcceptableMediaType(r, eventStreamMediaTypes)
	if err != nil {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		return
	}

	wf, ok := w.(writeFlusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if h.auth != nil {
		if userInfo := h.checkAuthentication(r.Context(), r, w); userInfo == nil {
			return
		}
	}

	ch, cancel := h.reload.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", eventStreamMediaType.String())
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	wf.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			if err := writeSSEEvent(wf, "reload", map[string]string{"reason": "bundle_changed"}); err != nil {
				return
			}
		}
	}
}

func (h *Handler) checkAuthentication(ctx context.Context, r *http.Request, w http.ResponseWriter) auth.UserInfo {
	authHeader := r.Header.Get(authorizationHeader)

	if authHeader == "" {
		w.Header().Add(wwwAuthenticateHeader, fmt.Sprintf(`Bearer realm="%s", error="invalid_token", error_description="no token provided"`, h.serverURL.String()))
		w.WriteHeader(http.StatusUnauthorized)
		return nil
	}

	tok, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || tok == "" {
		w.Header().Add(wwwAuthenticateHeader, fmt.Sprintf(`Bearer realm="%s", error="invalid_request", error_description="invalid or absent authorization header"`, h.serverURL.String()))
		w.WriteHeader(http.StatusBadRequest)
		return nil
	}

	userInfo, err := h.auth.CheckAuthentication(ctx, tok)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			w.Header().Add(wwwAuthenticateHeader, fmt.Sprintf(`Bearer realm="%s", error="invalid_token", error_description="%s"`, h.serverURL.String(), err.Error()))
			w.WriteHeader(http.StatusUnauthorized)
			return nil
		}

		if errors.Is(err, auth.ErrInsufficientScope) {
			w.Header().Add(wwwAuthenticateHeader, fmt.Sprintf(`Bearer realm="%s", error="insufficient_scope", error_description="%s"`, h.serverURL.String(), err.Error()))
			w.WriteHeader(http.StatusForbidden)
			return nil
		}

		w.WriteHeader(http.StatusInternalServerError)
		return nil
	}

	return userInfo
}

// writeSSEEvent writes a Server-Sent Event with the given event type and
// JSON-encoded message, then flushes the response.
func writeSSEEvent(wf writeFlusher, eventType string, message any) error {
	if _, err := fmt.Fprintf(wf, "event: %s\ndata: ", eventType); err != nil {
		return fmt.Errorf("failed to write SSE event header: %w", err)
	}

	if err := json.NewEncoder(wf).Encode(message); err != nil {
		return fmt.Errorf("failed to write SSE event data: %w", err)
	}

	if _, err := wf.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write SSE event footer: %w", err)
	}

	wf.Flush()
	return nil
}
