package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/crobledo/plinth"
	"github.com/crobledo/plinth/database"
)

// CORSConfig controls the CORS middleware. Disabled by default.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// HandlerConfig carries the service identity reported by the root
// endpoint and the CORS settings.
type HandlerConfig struct {
	ProjectName string
	Version     string
	CORS        CORSConfig
}

// statusResponse is the payload of the root endpoint.
type statusResponse struct {
	Project  string `json:"project"`
	Version  string `json:"version"`
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Handler provides the HTTP surface of the service: the status endpoint
// and a database liveness probe. Each request that touches the database
// runs inside its own scoped session.
type Handler struct {
	config HandlerConfig
	db     database.Strategy
}

// NewHandler creates a Handler serving requests against db.
func NewHandler(config *HandlerConfig, db database.Strategy) *Handler {
	return &Handler{
		config: *config,
		db:     db,
	}
}

// Router returns the configured http.Handler.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/", h.handleStatus)
	r.Get("/healthz", h.handleHealth)

	return r
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, statusResponse{
		Project:  h.config.ProjectName,
		Version:  h.config.Version,
		Status:   "running",
		Database: h.db.Backend(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	err := database.WithSession(r.Context(), h.db, func(sess plinth.Session) error {
		return plinth.Liveness(r.Context(), sess)
	})
	if err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
