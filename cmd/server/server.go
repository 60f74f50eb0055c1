package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/quoting"
)

const defaultMaxUploadBytes = 50 << 20

type server struct {
	svc       *quoting.Service
	logger    *slog.Logger
	uploadDir string
	// maxUploadBytes limits upload request bodies; zero means defaultMaxUploadBytes.
	maxUploadBytes int64
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadDir))))

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/materials", s.handleMaterialsList)
		r.Post("/quote", s.handleQuoteCreate)
		r.Get("/quote/{id}", s.handleQuoteGet)
		r.Post("/order", s.handleOrderCreate)
		r.Get("/order/{id}", s.handleOrderGet)
		r.Patch("/order/{id}/status", s.handleOrderStatus)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/material", s.handleMaterialCreate)
			r.Post("/material/{id}/active", s.handleMaterialActive)
			r.Get("/pricing/config", s.handlePricingConfigGet)
			r.Get("/pricing/configs", s.handlePricingConfigsList)
			r.Post("/pricing/config", s.handlePricingConfigPropose)
		})
	})

	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type uploadResponse struct {
	ModelID    int64   `json:"model_id"`
	Filename   string  `json:"filename"`
	VolumeMM3  float64 `json:"volume_mm3"`
	SurfaceMM2 float64 `json:"surface_mm2"`
	WeightG    float64 `json:"weight_g"`
	UploadURL  string  `json:"upload_url"`
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.maxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, fmt.Errorf("%w: upload exceeds %d bytes", errPayloadTooLarge, tooLarge.Limit))
			return
		}
		s.writeError(w, r, fmt.Errorf("%w: multipart field file: %v", errMalformedRequest, err))
		return
	}
	defer file.Close()

	m, err := s.svc.UploadModel(r.Context(), header.Filename, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, uploadResponse{
		ModelID:    m.ID,
		Filename:   m.Filename,
		VolumeMM3:  m.VolumeMM3,
		SurfaceMM2: m.SurfaceMM2,
		WeightG:    m.WeightGrams,
		UploadURL:  m.UploadURL,
	})
}

func (s *server) handleMaterialsList(w http.ResponseWriter, r *http.Request) {
	materials, err := s.svc.ListMaterials(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, materials)
}

type materialRequest struct {
	Family    string  `json:"family"`
	Brand     string  `json:"brand"`
	ColorName string  `json:"color_name"`
	Hex       string  `json:"hex"`
	Density   float64 `json:"density"`
	CostPerKg float64 `json:"cost_per_kg"`
	Surcharge float64 `json:"surcharge"`
}

func (s *server) handleMaterialCreate(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.svc.CreateMaterial(r.Context(), quoting.MaterialInput{
		Family:    req.Family,
		Brand:     req.Brand,
		ColorName: req.ColorName,
		Hex:       req.Hex,
		Density:   req.Density,
		CostPerKg: req.CostPerKg,
		Surcharge: req.Surcharge,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, m)
}

func (s *server) handleMaterialActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Active == nil {
		s.writeError(w, r, fmt.Errorf("%w: active is required", errMalformedRequest))
		return
	}

	m, err := s.svc.SetMaterialActive(r.Context(), id, *req.Active)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

type quoteRequest struct {
	ModelID               int64   `json:"model_id"`
	MaterialID            int64   `json:"material_id"`
	Quantity              int     `json:"quantity"`
	PostProcessingMinutes float64 `json:"post_processing_minutes"`
}

type quoteResponse struct {
	QuoteID       int64             `json:"quote_id"`
	UnitPrice     float64           `json:"unit_price"`
	Total         float64           `json:"total"`
	LeadTimeDays  int               `json:"lead_time_days"`
	Breakdown     pricing.Breakdown `json:"breakdown"`
	ConfigVersion string            `json:"config_version"`
	CreatedAt     time.Time         `json:"created_at"`
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	q, err := s.svc.CreateQuote(r.Context(), quoting.QuoteRequest{
		ModelID:               req.ModelID,
		MaterialID:            req.MaterialID,
		Quantity:              req.Quantity,
		PostProcessingMinutes: req.PostProcessingMinutes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, quoteResponse{
		QuoteID:       q.ID,
		UnitPrice:     q.Breakdown.UnitPrice,
		Total:         q.Price,
		LeadTimeDays:  q.LeadTimeDays,
		Breakdown:     q.Breakdown,
		ConfigVersion: q.ConfigVersion,
		CreatedAt:     q.CreatedAt,
	})
}

func (s *server) handleQuoteGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q, err := s.svc.GetQuote(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, q)
}

type orderRequest struct {
	QuoteID         int64  `json:"quote_id"`
	ShippingAddress string `json:"shipping_address"`
}

func (s *server) handleOrderCreate(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	order, err := s.svc.CreateOrder(r.Context(), quoting.OrderRequest{
		QuoteID:         req.QuoteID,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, order)
}

func (s *server) handleOrderGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	order, err := s.svc.GetOrder(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

type orderStatusRequest struct {
	Status       string `json:"status"`
	TrackingCode string `json:"tracking_code"`
}

func (s *server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req orderStatusRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	status, err := quoting.ParseOrderStatus(req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	order, err := s.svc.UpdateOrderStatus(r.Context(), id, status, req.TrackingCode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

type configResponse struct {
	Version       string             `json:"version"`
	EffectiveFrom time.Time          `json:"effective_from"`
	CreatedBy     string             `json:"created_by"`
	Parameters    pricing.Parameters `json:"parameters"`
}

func toConfigResponse(cfg pricing.Config) configResponse {
	return configResponse{
		Version:       cfg.Version,
		EffectiveFrom: cfg.EffectiveFrom,
		CreatedBy:     cfg.CreatedBy,
		Parameters:    cfg.Parameters,
	}
}

// handlePricingConfigGet returns the current config, or the one in force at ?at=.
func (s *server) handlePricingConfigGet(w http.ResponseWriter, r *http.Request) {
	var (
		cfg pricing.Config
		err error
	)
	if raw := r.URL.Query().Get("at"); raw != "" {
		at, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			s.writeError(w, r, fmt.Errorf("%w: at must be RFC3339", errMalformedRequest))
			return
		}
		cfg, err = s.svc.ConfigAsOf(r.Context(), at)
	} else {
		cfg, err = s.svc.CurrentConfig(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toConfigResponse(cfg))
}

func (s *server) handlePricingConfigsList(w http.ResponseWriter, r *http.Request) {
	configs, err := s.svc.ListConfigs(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]configResponse, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, toConfigResponse(cfg))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *server) handlePricingConfigPropose(w http.ResponseWriter, r *http.Request) {
	var req configResponse
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	cfg, err := s.svc.ProposeConfig(r.Context(), quoting.ProposeConfigInput{
		Version:       req.Version,
		EffectiveFrom: req.EffectiveFrom,
		Parameters:    req.Parameters,
		CreatedBy:     req.CreatedBy,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toConfigResponse(cfg))
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", errMalformedRequest)
	}
	return id, nil
}
