package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/printquote/internal/pricing"
)

// SQLite implements Store on a migrated SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an open database. The schema must already be migrated.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) AppendConfig(ctx context.Context, cfg pricing.Config) (pricing.Config, error) {
	paramsJSON, err := json.Marshal(cfg.Parameters)
	if err != nil {
		return pricing.Config{}, fmt.Errorf("encode pricing parameters: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO pricing_configs (version, effective_from, parameters_json, created_by)
		VALUES (?, ?, ?, ?)
	`, cfg.Version, formatTime(cfg.EffectiveFrom), string(paramsJSON), cfg.CreatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return pricing.Config{}, fmt.Errorf("pricing config version %q: %w", cfg.Version, ErrConflict)
		}
		return pricing.Config{}, fmt.Errorf("insert pricing config: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return pricing.Config{}, fmt.Errorf("read pricing config id: %w", err)
	}

	stored := cfg.Clone()
	stored.ID = id
	return stored, nil
}

func (s *SQLite) ListConfigs(ctx context.Context) ([]pricing.Config, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, effective_from, parameters_json, created_by
		FROM pricing_configs
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query pricing configs: %w", err)
	}
	defer rows.Close()

	configs := make([]pricing.Config, 0)
	for rows.Next() {
		var (
			cfg           pricing.Config
			effectiveFrom string
			paramsJSON    string
		)
		if err := rows.Scan(&cfg.ID, &cfg.Version, &effectiveFrom, &paramsJSON, &cfg.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan pricing config: %w", err)
		}
		if cfg.EffectiveFrom, err = parseTime(effectiveFrom); err != nil {
			return nil, fmt.Errorf("pricing config %s effective_from: %w", cfg.Version, err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &cfg.Parameters); err != nil {
			return nil, fmt.Errorf("decode pricing config %s parameters: %w", cfg.Version, err)
		}
		configs = append(configs, cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pricing configs: %w", err)
	}

	return configs, nil
}

func (s *SQLite) CreateMaterial(ctx context.Context, m Material) (Material, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO materials (family, brand, color_name, hex, density, cost_per_kg, surcharge, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, string(m.Family), m.Brand, m.ColorName, m.Hex, m.Density, m.CostPerKg, m.Surcharge, m.Active)
	if err != nil {
		return Material{}, fmt.Errorf("insert material: %w", err)
	}

	if m.ID, err = result.LastInsertId(); err != nil {
		return Material{}, fmt.Errorf("read material id: %w", err)
	}
	return m, nil
}

const materialColumns = `id, family, brand, color_name, hex, density, cost_per_kg, surcharge, active`

func scanMaterial(row interface{ Scan(...any) error }) (Material, error) {
	var (
		m      Material
		family string
	)
	if err := row.Scan(&m.ID, &family, &m.Brand, &m.ColorName, &m.Hex, &m.Density, &m.CostPerKg, &m.Surcharge, &m.Active); err != nil {
		return Material{}, err
	}
	m.Family = pricing.MaterialKey(family)
	return m, nil
}

func (s *SQLite) GetMaterial(ctx context.Context, id int64) (Material, error) {
	m, err := scanMaterial(s.db.QueryRowContext(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Material{}, fmt.Errorf("material %d: %w", id, ErrNotFound)
		}
		return Material{}, fmt.Errorf("query material: %w", err)
	}
	return m, nil
}

func (s *SQLite) ListMaterials(ctx context.Context) ([]Material, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+materialColumns+` FROM materials ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]Material, 0)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}

	return materials, nil
}

func (s *SQLite) SetMaterialActive(ctx context.Context, id int64, active bool) (Material, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE materials
		SET
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, active, id)
	if err != nil {
		return Material{}, fmt.Errorf("update material: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Material{}, fmt.Errorf("update material: %w", err)
	}
	if affected == 0 {
		return Material{}, fmt.Errorf("material %d: %w", id, ErrNotFound)
	}

	return s.GetMaterial(ctx, id)
}

func (s *SQLite) CreateModel(ctx context.Context, m ModelFile) (ModelFile, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO models (
			filename, storage_key, volume_mm3, surface_mm2, bbox_x, bbox_y, bbox_z, weight_g, upload_url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.Filename,
		m.StorageKey,
		m.VolumeMM3,
		m.SurfaceMM2,
		m.BoundingBox[0],
		m.BoundingBox[1],
		m.BoundingBox[2],
		m.WeightGrams,
		m.UploadURL,
		formatTime(m.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ModelFile{}, fmt.Errorf("model storage key %q: %w", m.StorageKey, ErrConflict)
		}
		return ModelFile{}, fmt.Errorf("insert model: %w", err)
	}

	if m.ID, err = result.LastInsertId(); err != nil {
		return ModelFile{}, fmt.Errorf("read model id: %w", err)
	}
	return m, nil
}

func (s *SQLite) GetModel(ctx context.Context, id int64) (ModelFile, error) {
	var (
		m         ModelFile
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, storage_key, volume_mm3, surface_mm2, bbox_x, bbox_y, bbox_z, weight_g, upload_url, created_at
		FROM models
		WHERE id = ?
	`, id).Scan(
		&m.ID,
		&m.Filename,
		&m.StorageKey,
		&m.VolumeMM3,
		&m.SurfaceMM2,
		&m.BoundingBox[0],
		&m.BoundingBox[1],
		&m.BoundingBox[2],
		&m.WeightGrams,
		&m.UploadURL,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ModelFile{}, fmt.Errorf("model %d: %w", id, ErrNotFound)
		}
		return ModelFile{}, fmt.Errorf("query model: %w", err)
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return ModelFile{}, fmt.Errorf("model %d created_at: %w", id, err)
	}
	return m, nil
}

func (s *SQLite) CreateQuote(ctx context.Context, q Quote) (Quote, error) {
	breakdownJSON, err := json.Marshal(q.Breakdown)
	if err != nil {
		return Quote{}, fmt.Errorf("encode quote breakdown: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (
			model_id, material_id, material_key, quantity, post_processing_minutes,
			breakdown_json, price, config_version, lead_time_days, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		q.ModelID,
		q.MaterialID,
		string(q.MaterialKey),
		q.Quantity,
		q.PostProcessingMinutes,
		string(breakdownJSON),
		q.Price,
		q.ConfigVersion,
		q.LeadTimeDays,
		formatTime(q.CreatedAt),
	)
	if err != nil {
		return Quote{}, fmt.Errorf("insert quote: %w", err)
	}

	if q.ID, err = result.LastInsertId(); err != nil {
		return Quote{}, fmt.Errorf("read quote id: %w", err)
	}
	return q, nil
}

const quoteColumns = `id, model_id, material_id, material_key, quantity, post_processing_minutes, breakdown_json, price, config_version, lead_time_days, created_at`

func scanQuote(row interface{ Scan(...any) error }) (Quote, error) {
	var (
		q             Quote
		materialKey   string
		breakdownJSON string
		createdAt     string
	)
	if err := row.Scan(
		&q.ID,
		&q.ModelID,
		&q.MaterialID,
		&materialKey,
		&q.Quantity,
		&q.PostProcessingMinutes,
		&breakdownJSON,
		&q.Price,
		&q.ConfigVersion,
		&q.LeadTimeDays,
		&createdAt,
	); err != nil {
		return Quote{}, err
	}
	q.MaterialKey = pricing.MaterialKey(materialKey)
	if err := json.Unmarshal([]byte(breakdownJSON), &q.Breakdown); err != nil {
		return Quote{}, fmt.Errorf("decode quote %d breakdown: %w", q.ID, err)
	}
	var err error
	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return Quote{}, fmt.Errorf("quote %d created_at: %w", q.ID, err)
	}
	return q, nil
}

func (s *SQLite) GetQuote(ctx context.Context, id int64) (Quote, error) {
	q, err := scanQuote(s.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quote{}, fmt.Errorf("quote %d: %w", id, ErrNotFound)
		}
		return Quote{}, fmt.Errorf("query quote: %w", err)
	}
	return q, nil
}

func (s *SQLite) ListQuotes(ctx context.Context) ([]Quote, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+quoteColumns+` FROM quotes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return quotes, nil
}

func (s *SQLite) CreateOrder(ctx context.Context, o Order) (Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, fmt.Errorf("begin order transaction: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (status, tracking_code, shipping_address, total_price, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, string(o.Status), o.TrackingCode, o.ShippingAddress, o.TotalPrice, formatTime(o.CreatedAt))
	if err != nil {
		_ = tx.Rollback()
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	if o.ID, err = result.LastInsertId(); err != nil {
		_ = tx.Rollback()
		return Order{}, fmt.Errorf("read order id: %w", err)
	}

	items := make([]OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.OrderID = o.ID
		result, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, quote_id, printer_assigned, status)
			VALUES (?, ?, ?, ?)
		`, item.OrderID, item.QuoteID, item.PrinterAssigned, string(item.Status))
		if err != nil {
			_ = tx.Rollback()
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
		if item.ID, err = result.LastInsertId(); err != nil {
			_ = tx.Rollback()
			return Order{}, fmt.Errorf("read order item id: %w", err)
		}
		items[i] = item
	}
	o.Items = items

	if err := tx.Commit(); err != nil {
		return Order{}, fmt.Errorf("commit order transaction: %w", err)
	}
	return o, nil
}

func (s *SQLite) GetOrder(ctx context.Context, id int64) (Order, error) {
	var (
		o         Order
		status    string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, status, tracking_code, shipping_address, total_price, created_at
		FROM orders
		WHERE id = ?
	`, id).Scan(&o.ID, &status, &o.TrackingCode, &o.ShippingAddress, &o.TotalPrice, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return Order{}, fmt.Errorf("query order: %w", err)
	}
	o.Status = OrderStatus(status)
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return Order{}, fmt.Errorf("order %d created_at: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, quote_id, printer_assigned, status
		FROM order_items
		WHERE order_id = ?
		ORDER BY id ASC
	`, id)
	if err != nil {
		return Order{}, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	o.Items = make([]OrderItem, 0)
	for rows.Next() {
		var (
			item       OrderItem
			itemStatus string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.QuoteID, &item.PrinterAssigned, &itemStatus); err != nil {
			return Order{}, fmt.Errorf("scan order item: %w", err)
		}
		item.Status = OrderStatus(itemStatus)
		o.Items = append(o.Items, item)
	}

	if err := rows.Err(); err != nil {
		return Order{}, fmt.Errorf("iterate order items: %w", err)
	}

	return o, nil
}

func (s *SQLite) UpdateOrderStatus(ctx context.Context, id int64, from, status OrderStatus, trackingCode string) (Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, fmt.Errorf("begin order status transaction: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET
			status = ?,
			tracking_code = CASE WHEN ? = '' THEN tracking_code ELSE ? END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, string(status), trackingCode, trackingCode, id, string(from))
	if err != nil {
		_ = tx.Rollback()
		return Order{}, fmt.Errorf("update order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return Order{}, fmt.Errorf("update order status: %w", err)
	}
	if affected == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, id).Scan(&exists)
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return Order{}, fmt.Errorf("check order existence: %w", err)
		}
		return Order{}, fmt.Errorf("order %d is no longer %s: %w", id, from, ErrStatusChanged)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE order_items SET status = ? WHERE order_id = ?`, string(status), id); err != nil {
		_ = tx.Rollback()
		return Order{}, fmt.Errorf("update order item status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Order{}, fmt.Errorf("commit order status transaction: %w", err)
	}

	return s.GetOrder(ctx, id)
}

// Fixed-width so that stored timestamps sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(timeLayout, raw)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
