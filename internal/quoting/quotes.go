package quoting

import (
	"context"
	"fmt"

	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/store"
)

// QuoteRequest asks for a price for a model printed in a catalog material.
type QuoteRequest struct {
	ModelID               int64
	MaterialID            int64
	Quantity              int
	PostProcessingMinutes float64
}

// CreateQuote prices the request with the current config and records an immutable
// quote. Nothing is stored when pricing fails.
func (s *Service) CreateQuote(ctx context.Context, req QuoteRequest) (store.Quote, error) {
	q, err := s.createQuote(ctx, req)
	if err != nil {
		quotesRejected.WithLabelValues(rejectionReason(err)).Inc()
		s.logger.Warn("quote rejected",
			"model_id", req.ModelID,
			"material_id", req.MaterialID,
			"quantity", req.Quantity,
			"error", err,
		)
		return store.Quote{}, err
	}

	quotesIssued.WithLabelValues(string(q.MaterialKey), q.ConfigVersion).Inc()
	quoteTotals.Observe(q.Price)
	s.logger.Info("quote issued",
		"quote_id", q.ID,
		"config_version", q.ConfigVersion,
		"total", q.Price,
		"lead_time_days", q.LeadTimeDays,
	)
	return q, nil
}

func (s *Service) createQuote(ctx context.Context, req QuoteRequest) (store.Quote, error) {
	model, err := s.store.GetModel(ctx, req.ModelID)
	if err != nil {
		return store.Quote{}, err
	}
	material, err := s.store.GetMaterial(ctx, req.MaterialID)
	if err != nil {
		return store.Quote{}, err
	}
	if !material.Active {
		return store.Quote{}, fmt.Errorf("%w: material %d is not orderable", pricing.ErrUnknownMaterial, material.ID)
	}

	cfg, err := s.CurrentConfig(ctx)
	if err != nil {
		return store.Quote{}, err
	}

	breakdown, err := pricing.Price(cfg, pricing.PriceInput{
		Material:              material.Family,
		VolumeMM3:             model.VolumeMM3,
		SurfaceMM2:            model.SurfaceMM2,
		Quantity:              req.Quantity,
		PostProcessingMinutes: req.PostProcessingMinutes,
	})
	if err != nil {
		return store.Quote{}, err
	}

	q, err := s.store.CreateQuote(ctx, store.Quote{
		ModelID:               model.ID,
		MaterialID:            material.ID,
		MaterialKey:           material.Family,
		Quantity:              req.Quantity,
		PostProcessingMinutes: req.PostProcessingMinutes,
		Breakdown:             breakdown,
		Price:                 breakdown.Total,
		ConfigVersion:         cfg.Version,
		LeadTimeDays:          breakdown.LeadTimeDays,
		CreatedAt:             s.now().UTC(),
	})
	if err != nil {
		return store.Quote{}, fmt.Errorf("create quote: %w", err)
	}
	return q, nil
}

// GetQuote returns an issued quote.
func (s *Service) GetQuote(ctx context.Context, id int64) (store.Quote, error) {
	return s.store.GetQuote(ctx, id)
}

// ListQuotes returns issued quotes, newest first.
func (s *Service) ListQuotes(ctx context.Context) ([]store.Quote, error) {
	quotes, err := s.store.ListQuotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	return quotes, nil
}
