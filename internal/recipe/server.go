package recipe

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server handles HTTP requests for recipes
type Server struct {
	service   *Service
	basicAuth BasicAuth
	gatherer  prometheus.Gatherer
	mux       *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, basicAuth BasicAuth, gatherer prometheus.Gatherer) *Server {
	return NewServerWithMux(service, basicAuth, gatherer, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing.
// A nil gatherer leaves /metrics unregistered.
func NewServerWithMux(service *Service, basicAuth BasicAuth, gatherer prometheus.Gatherer, mux *http.ServeMux) *Server {
	s := &Server{
		service:   service,
		basicAuth: basicAuth,
		gatherer:  gatherer,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return false
	}

	return user == s.basicAuth.Username && pass == s.basicAuth.Password
}

// corsMiddleware adds CORS headers and answers preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Recipe Box"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.gatherer != nil {
		metrics := promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
		s.mux.HandleFunc("GET /metrics", s.requireAuth(metrics.ServeHTTP))
	}

	// Preview only, nothing is saved
	s.mux.HandleFunc("POST /api/extract/text", s.requireAuth(s.handleExtractText))
	s.mux.HandleFunc("POST /api/extract/image", s.requireAuth(s.handleExtractImage))

	s.mux.HandleFunc("POST /api/recipes/import/text", s.requireAuth(s.handleImportText))
	s.mux.HandleFunc("POST /api/recipes/import/image", s.requireAuth(s.handleImportImage))
	s.mux.HandleFunc("GET /api/recipes/{id}/file", s.requireAuth(s.handleGetRecipeFile))
	s.mux.HandleFunc("GET /api/recipes/{id}", s.requireAuth(s.handleGetRecipe))
	s.mux.HandleFunc("DELETE /api/recipes/{id}", s.requireAuth(s.handleDeleteRecipe))
	s.mux.HandleFunc("GET /api/recipes", s.requireAuth(s.handleListRecipes))
	s.mux.HandleFunc("POST /api/recipes", s.requireAuth(s.handleCreateRecipe))
}

// Handler returns the mux wrapped with CORS handling
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Start serves HTTP on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}
