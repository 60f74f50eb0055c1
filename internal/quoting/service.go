// Package quoting issues quotes and orders for uploaded models and administers the
// versioned pricing configs they are priced with.
package quoting

import (
	"errors"
	"log/slog"
	"time"

	"github.com/Simplici0/printquote/internal/store"
)

// ErrInvalidTransition is returned when an order status change is not allowed.
var ErrInvalidTransition = errors.New("invalid order status transition")

// Service coordinates the repositories, the pricing engine and the model analyzer.
type Service struct {
	store     store.Store
	analyzer  Analyzer
	uploadDir string
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithAnalyzer replaces the geometry analyzer.
func WithAnalyzer(a Analyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

// WithUploadDir sets where uploaded model files are written.
func WithUploadDir(dir string) Option {
	return func(s *Service) { s.uploadDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service backed by st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		analyzer:  PlaceholderAnalyzer{},
		uploadDir: "uploads",
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
