package http

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"daomerge/config"
	core "daomerge/ingestion/service/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

// CommitHandler serves the encrypted commit hash lookups
type CommitHandler struct {
	svc    *core.Service
	logger *log.Logger
}

// NewCommitHandler creates a new CommitHandler
func NewCommitHandler(s *core.Service, l *log.Logger) *CommitHandler {
	return &CommitHandler{svc: s, logger: l}
}

// NewRouter mounts the handler routes behind request IDs and the per-client limiter.
func NewRouter(h *CommitHandler, rl config.RateLimitConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(newClientLimiter(rl).middleware)

	r.Get("/", h.Status)
	r.Get("/latestCommit", h.LatestCommit)
	return r
}

// Status handles GET / requests
func (h *CommitHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, map[string]any{"status": "ok", "message": "OK"}, http.StatusOK)
}

// LatestCommit handles GET /latestCommit requests. Either url, or all of
// owner, repo and branch, must be given.
func (h *CommitHandler) LatestCommit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		result *core.CommitResult
		err    error
	)
	if pullURL := q.Get("url"); pullURL != "" {
		result, err = h.svc.FromPullURL(r.Context(), pullURL)
		if errors.Is(err, core.ErrInvalidPullURL) {
			h.respondError(w, `"url" must be a pull request URL`, http.StatusBadRequest)
			return
		}
	} else {
		for _, field := range []string{"owner", "repo", "branch"} {
			if q.Get(field) == "" {
				h.respondError(w, `"`+field+`" is required`, http.StatusBadRequest)
				return
			}
		}
		result, err = h.svc.LatestCommit(r.Context(), q.Get("owner"), q.Get("repo"), q.Get("branch"))
	}

	if err != nil {
		h.logger.Printf("HTTP Handler [%s]: Could not get latest commit: %v", w.Header().Get(requestIDHeader), err)
		h.respondError(w, "Could not get latest commit", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, map[string]any{
		"status": "ok",
		"data":   map[string]string{"sha": result.SHA},
	}, http.StatusOK)
}

// respondJSON sends JSON response
func (h *CommitHandler) respondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("HTTP Handler: Failed to encode JSON response: %v", err)
	}
}

// respondError sends error response
func (h *CommitHandler) respondError(w http.ResponseWriter, message string, statusCode int) {
	h.respondJSON(w, map[string]any{"status": "error", "message": message}, statusCode)
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// clientLimiter keeps one token bucket per client IP.
type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	maxIdle int
	now     func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(cfg config.RateLimitConfig) *clientLimiter {
	return &clientLimiter{
		clients: make(map[string]*clientBucket),
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		idleTTL: 5 * time.Minute,
		maxIdle: 10000,
		now:     time.Now,
	}
}

func (l *clientLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.clients) >= l.maxIdle {
		for key, b := range l.clients {
			if now.Sub(b.lastSeen) > l.idleTTL {
				delete(l.clients, key)
			}
		}
	}

	b, ok := l.clients[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func (l *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"status":"error","message":"Too many requests"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
