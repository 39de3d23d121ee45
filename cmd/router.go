package main

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"math"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/property-advisor/internal/advisor"
	"github.com/sells-group/property-advisor/internal/config"
	"github.com/sells-group/property-advisor/internal/model"
	"github.com/sells-group/property-advisor/internal/present"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"barWidth": func(score float64) float64 {
		return math.Round(math.Max(0, math.Min(1, score))*1000) / 10
	},
}).ParseFS(templatesFS, "templates/index.html"))

// maxBodyBytes bounds analyze request bodies.
const maxBodyBytes = 64 << 10

// Error kinds reported by the API in addition to the advisor kinds.
const (
	kindInvalidInput = "InvalidInput"
	kindRateLimited  = "RateLimited"
)

// server holds the dependencies shared by the HTTP handlers. The advisor is
// immutable, so handlers call it concurrently without locking.
type server struct {
	advisor  *advisor.Advisor
	insights present.ImportanceSource
	cfg      config.InsightsConfig
}

type pageData struct {
	Options  present.Options
	Input    present.RawInput
	Analysis *present.Analysis
	Error    string
	Insights *present.Insights
}

type apiError struct {
	Kind     string   `json:"kind"`
	Stage    string   `json:"stage,omitempty"`
	Message  string   `json:"message"`
	Problems []string `json:"problems,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// buildRouter wires the middleware chain and routes. Only the analyze
// endpoints are rate limited; they share one token bucket.
func buildRouter(s *server, sc config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sc.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	limited := rateLimit(rate.NewLimiter(rate.Limit(sc.RateLimitRPS), sc.RateLimitBurst))

	r.Get("/health", handleHealth)
	r.Get("/", s.handleIndex)
	r.With(limited).Post("/", s.handleIndexSubmit)
	r.Get("/figures/{name}", s.handleFigure)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/options", handleOptions)
		r.Get("/insights", s.handleInsights)
		r.With(limited).Post("/analyze", s.handleAnalyze)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, present.FormOptions())
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, pageData{Input: present.DefaultInput()})
}

func (s *server) handleIndexSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, r, http.StatusBadRequest, pageData{Input: present.DefaultInput(), Error: "Could not read the submitted form."})
		return
	}

	in := present.RawInput{
		State:           r.PostForm.Get("state"),
		City:            r.PostForm.Get("city"),
		PropertyType:    r.PostForm.Get("property_type"),
		BHK:             json.Number(r.PostForm.Get("bhk")),
		SizeSqFt:        json.Number(r.PostForm.Get("size_sqft")),
		YearBuilt:       json.Number(r.PostForm.Get("year_built")),
		FurnishedStatus: r.PostForm.Get("furnished_status"),
		PublicTransport: r.PostForm.Get("public_transport_accessibility"),
		ParkingSpace:    r.PostForm.Get("parking_space"),
		Security:        r.PostForm.Get("security"),
		OwnerType:       r.PostForm.Get("owner_type"),
	}

	data := pageData{Input: in}
	analysis, err := s.analyze(r, in)
	if err != nil {
		data.Error = present.ErrorMessage(err)
		s.renderPage(w, r, statusFor(err), data)
		return
	}
	data.Analysis = analysis
	s.renderPage(w, r, http.StatusOK, data)
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var in present.RawInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: apiError{
			Kind:    kindInvalidInput,
			Message: "invalid request body",
		}})
		return
	}

	analysis, err := s.analyze(r, in)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: toAPIError(err)})
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *server) handleInsights(w http.ResponseWriter, r *http.Request) {
	ins, err := s.loadInsights(r)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: apiError{
			Kind:    "InsightsUnavailable",
			Message: "feature importances are unavailable",
		}})
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

func (s *server) handleFigure(w http.ResponseWriter, r *http.Request) {
	path, err := present.FigurePath(s.cfg.FiguresDir, chi.URLParam(r, "name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

// analyze parses, scores and renders one submission.
func (s *server) analyze(r *http.Request, in present.RawInput) (*present.Analysis, error) {
	log := zap.L().With(zap.String("request_id", middleware.GetReqID(r.Context())))

	rec, err := in.Record()
	if err != nil {
		log.Debug("analyze: rejected input", zap.Error(err))
		return nil, err
	}

	res, err := s.advisor.Infer(rec)
	if err != nil {
		logInferenceFailure(log, rec, err)
		return nil, err
	}

	id := uuid.NewString()
	log.Info("analyze: property scored",
		zap.String("analysis_id", id),
		zap.String("city", rec.City),
		zap.Bool("good_investment", res.IsGoodInvestment),
	)
	return present.NewAnalysis(id, res), nil
}

func (s *server) loadInsights(r *http.Request) (*present.Insights, error) {
	return present.LoadInsights(r.Context(), s.insights, s.cfg.Model, s.cfg.TopFeatures, s.cfg.FiguresDir)
}

func (s *server) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.Options = present.FormOptions()
	// A store outage degrades the panel, not the page.
	data.Insights, _ = s.loadInsights(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, data); err != nil {
		zap.L().Error("render page", zap.Error(err))
	}
}

// logInferenceFailure logs unexpected kinds at error level. Unknown
// categories are ordinary user input and stay at warn.
func logInferenceFailure(log *zap.Logger, rec model.PropertyRecord, err error) {
	fields := []zap.Field{
		zap.String("kind", string(advisor.KindOf(err))),
		zap.String("state", rec.State),
		zap.String("city", rec.City),
		zap.Error(err),
	}
	if advisor.KindOf(err) == advisor.UnsupportedCategory {
		log.Warn("analyze: value outside trained vocabulary", fields...)
		return
	}
	log.Error("analyze: inference failed", fields...)
}

// statusFor maps a failure onto an HTTP status.
func statusFor(err error) int {
	var inErr *present.InputError
	if errors.As(err, &inErr) {
		return http.StatusBadRequest
	}
	switch advisor.KindOf(err) {
	case advisor.UnsupportedCategory:
		return http.StatusUnprocessableEntity
	case advisor.ModelUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func toAPIError(err error) apiError {
	var inErr *present.InputError
	if errors.As(err, &inErr) {
		return apiError{Kind: kindInvalidInput, Message: present.ErrorMessage(err), Problems: inErr.Problems}
	}
	var ie *advisor.InferenceError
	if errors.As(err, &ie) {
		return apiError{Kind: string(ie.Kind), Stage: string(ie.Stage), Message: present.ErrorMessage(err)}
	}
	return apiError{Kind: string(advisor.InternalInferenceFailure), Message: present.ErrorMessage(err)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write json response", zap.Error(err))
	}
}
