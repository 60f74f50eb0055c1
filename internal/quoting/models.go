package quoting

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/store"
)

// Geometry is what the pricing engine needs to know about a part.
type Geometry struct {
	VolumeMM3   float64
	SurfaceMM2  float64
	BoundingBox [3]float64
}

// Analyzer extracts geometry from an uploaded model file.
type Analyzer interface {
	Analyze(ctx context.Context, filename string, data []byte) (Geometry, error)
}

// PlaceholderAnalyzer reports the same geometry for every file. It stands in for a
// mesh analysis service.
type PlaceholderAnalyzer struct{}

func (PlaceholderAnalyzer) Analyze(context.Context, string, []byte) (Geometry, error) {
	return Geometry{
		VolumeMM3:   50000,
		SurfaceMM2:  20000,
		BoundingBox: [3]float64{100, 100, 100},
	}, nil
}

// UploadModel stores the file, analyzes it and records the model.
func (s *Service) UploadModel(ctx context.Context, filename string, r io.Reader) (store.ModelFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return store.ModelFile{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return store.ModelFile{}, fmt.Errorf("%w: empty file", pricing.ErrInvalidInput)
	}

	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return store.ModelFile{}, fmt.Errorf("%w: filename is required", pricing.ErrInvalidInput)
	}

	geometry, err := s.analyzer.Analyze(ctx, name, data)
	if err != nil {
		return store.ModelFile{}, fmt.Errorf("analyze model: %w", err)
	}
	if geometry.VolumeMM3 < 0 || geometry.SurfaceMM2 < 0 {
		return store.ModelFile{}, fmt.Errorf("%w: analyzer returned negative geometry", pricing.ErrInvalidInput)
	}

	key := uuid.NewString()
	dir := filepath.Join(s.uploadDir, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return store.ModelFile{}, fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return store.ModelFile{}, fmt.Errorf("write upload: %w", err)
	}

	previewDensity := pricing.DefaultParameters().Density[pricing.PLA]
	m, err := s.store.CreateModel(ctx, store.ModelFile{
		Filename:    name,
		StorageKey:  key,
		VolumeMM3:   geometry.VolumeMM3,
		SurfaceMM2:  geometry.SurfaceMM2,
		BoundingBox: geometry.BoundingBox,
		WeightGrams: geometry.VolumeMM3 / 1000.0 * previewDensity,
		UploadURL:   path.Join("/uploads", key, name),
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return store.ModelFile{}, fmt.Errorf("create model: %w", err)
	}

	s.logger.Info("model uploaded", "id", m.ID, "filename", m.Filename, "bytes", len(data))
	return m, nil
}

// GetModel returns an uploaded model.
func (s *Service) GetModel(ctx context.Context, id int64) (store.ModelFile, error) {
	return s.store.GetModel(ctx, id)
}
