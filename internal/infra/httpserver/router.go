package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appsigns "github.com/bryanwahyu/traffic-sign-indicator/internal/application/signs"
	domai "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/ai"
	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/logger"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/middleware"
)

// Options for the HTTP surface. Zero values disable auth and rate limiting.
type Options struct {
	Logger         *zap.Logger
	APIKeys        map[string]string
	Limiter        *middleware.RateLimiter
	AllowedOrigins []string
	Checkers       map[string]middleware.HealthChecker
}

type Router struct {
	signsSvc *appsigns.Service
	log      *zap.Logger
}

func NewRouter(signsSvc *appsigns.Service, opt Options) http.Handler {
	r := &Router{signsSvc: signsSvc, log: logger.OrNop(opt.Logger)}
	mux := chi.NewRouter()

	origins := opt.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(middleware.Logging(r.log))
	mux.Use(middleware.Metrics)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.APIKeyAuth(opt.APIKeys))
	if opt.Limiter != nil {
		mux.Use(middleware.RateLimit(opt.Limiter))
	}
	mux.Use(middleware.LimitBody)

	mux.Get("/health", middleware.HealthHandler(opt.Checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/images", r.wrap(r.handleImages))
		rt.Get("/analyses", r.wrap(r.handleAnalyses))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, domain.ErrInvalidRequest), errors.As(err, &maxErr):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrSourceNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domai.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		case errors.Is(err, domain.ErrInference):
			http.Error(w, err.Error(), http.StatusBadGateway)
		default:
			r.log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// recordResponse is the JSON shape of a stored analysis
type recordResponse struct {
	ID                string `json:"id"`
	ImageKey          string `json:"image_key"`
	SignDescription   string `json:"sign_description"`
	Context           string `json:"context"`
	PrecautionWarning string `json:"precaution_warning"`
	Timestamp         string `json:"timestamp"`
}

func toResponse(rec domain.AnalysisRecord) recordResponse {
	return recordResponse{
		ID:                rec.ID,
		ImageKey:          rec.ImageKey,
		SignDescription:   rec.SignDescription,
		Context:           rec.Context,
		PrecautionWarning: rec.PrecautionWarning,
		Timestamp:         rec.TimestampString(),
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/analyze
// Body: {"image_key": "image-1.jpg", "context": "rainy, 60 km/h"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body domain.AnalysisRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: decode body: %w", domain.ErrInvalidRequest, err)
	}
	if err := middleware.ValidateImageKey(body.ImageKey); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if err := middleware.ValidateContext(body.Context); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	rec, err := r.signsSvc.Analyze(req.Context(), appsigns.AnalyzeCommand{
		ImageKey: body.ImageKey,
		Context:  body.Context,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, toResponse(rec))
}

// GET /v1/images
func (r *Router) handleImages(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, map[string][]string{"images": r.signsSvc.ListCandidates(req.Context())})
}

// GET /v1/analyses?page=&page_size=
func (r *Router) handleAnalyses(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	page = middleware.ValidatePage(page)
	size = middleware.ValidateLimit(size)

	list, err := r.signsSvc.Latest(req.Context(), page, size)
	if err != nil {
		return err
	}
	items := make([]recordResponse, 0, len(list))
	for _, rec := range list {
		items = append(items, toResponse(rec))
	}
	return writeJSON(w, map[string]any{
		"page":      page,
		"page_size": size,
		"items":     items,
	})
}
