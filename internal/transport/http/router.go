package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"career-assessment-service/internal/advisor"
	"career-assessment-service/internal/app"
)

// Server wires the REST API and the WebSocket flow onto a chi router.
type Server struct {
	service  *app.AssessmentService
	advisor  *advisor.Advisor
	resolver UserResolver
	logger   *zap.Logger
	validate *validator.Validate
	origins  []string
	router   *chi.Mux
}

// Options configures optional Server collaborators.
type Options struct {
	Resolver       UserResolver
	Logger         *zap.Logger
	AllowedOrigins []string
}

func NewServer(service *app.AssessmentService, adv *advisor.Advisor, opts Options) *Server {
	s := &Server{
		service:  service,
		advisor:  adv,
		resolver: opts.Resolver,
		logger:   opts.Logger,
		validate: validator.New(),
		origins:  opts.AllowedOrigins,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	s.setupRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	ws := NewWSHandler(s.service, s.logger)
	r.With(identify(s.resolver, s.logger)).Get("/ws", ws.ServeWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(identify(s.resolver, s.logger))

		r.Route("/assessments", func(r chi.Router) {
			r.Get("/", s.handleListAssessments)
			r.Route("/{type}", func(r chi.Router) {
				r.Get("/", s.handleGetAssessment)
				r.Post("/score", s.handleScore)

				r.Route("/attempt", func(r chi.Router) {
					r.Post("/", s.handleStartAttempt)
					r.Delete("/", s.handleAbandonAttempt)
					r.Put("/answers", s.handleRecordAnswer)
					r.Post("/next", s.handleNavigate(app.DirectionNext))
					r.Post("/previous", s.handleNavigate(app.DirectionPrevious))
					r.Post("/restart", s.handleRestartAttempt)
					r.Post("/finish", s.handleFinishAttempt)
				})
			})
		})

		r.Route("/results", func(r chi.Router) {
			r.Get("/", s.handleResults)
			r.Delete("/", s.handleResetResults)
			r.Get("/summary", s.handleSummary)
			r.Get("/export", s.handleExport)
		})

		r.Get("/snapshots/{type}", s.handleSnapshot)
		r.Get("/recommendations", s.handleRecommendations)
		r.Post("/chat", s.handleChat)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests with zap.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
