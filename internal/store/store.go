// Package store holds the repositories used by the quoting service. Records are plain
// values; callers never receive references into a repository's internal state.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Simplici0/printquote/internal/pricing"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("conflict")
	// ErrStatusChanged is returned when an order left the expected status before an
	// update was applied.
	ErrStatusChanged = errors.New("order status changed")
)

// Material is a catalog entry that can be ordered.
type Material struct {
	ID        int64               `json:"id"`
	Family    pricing.MaterialKey `json:"family"`
	Brand     string              `json:"brand"`
	ColorName string              `json:"color_name"`
	Hex       string              `json:"hex"`
	Density   float64             `json:"density"`
	CostPerKg float64             `json:"cost_per_kg"`
	Surcharge float64             `json:"surcharge"`
	Active    bool                `json:"active"`
}

// ModelFile is an uploaded part with its analyzed geometry.
type ModelFile struct {
	ID          int64      `json:"id"`
	Filename    string     `json:"filename"`
	StorageKey  string     `json:"storage_key"`
	VolumeMM3   float64    `json:"volume_mm3"`
	SurfaceMM2  float64    `json:"surface_mm2"`
	BoundingBox [3]float64 `json:"bounding_box"`
	WeightGrams float64    `json:"weight_g"`
	UploadURL   string     `json:"upload_url"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Quote is an immutable priced offer tied to the config version that produced it.
type Quote struct {
	ID                    int64               `json:"id"`
	ModelID               int64               `json:"model_id"`
	MaterialID            int64               `json:"material_id"`
	MaterialKey           pricing.MaterialKey `json:"material_key"`
	Quantity              int                 `json:"quantity"`
	PostProcessingMinutes float64             `json:"post_processing_minutes"`
	Breakdown             pricing.Breakdown   `json:"breakdown"`
	Price                 float64             `json:"price"`
	ConfigVersion         string              `json:"config_version"`
	LeadTimeDays          int                 `json:"lead_time_days"`
	CreatedAt             time.Time           `json:"created_at"`
}

// OrderStatus is a step of the order lifecycle.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusPrinting   OrderStatus = "printing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// Order groups the items bought from one or more quotes.
type Order struct {
	ID              int64       `json:"id"`
	Status          OrderStatus `json:"status"`
	TrackingCode    string      `json:"tracking_code,omitempty"`
	ShippingAddress string      `json:"shipping_address"`
	CreatedAt       time.Time   `json:"created_at"`
	TotalPrice      float64     `json:"total_price"`
	Items           []OrderItem `json:"items"`
}

// OrderItem is one quote inside an order.
type OrderItem struct {
	ID              int64       `json:"id"`
	OrderID         int64       `json:"order_id"`
	QuoteID         int64       `json:"quote_id"`
	PrinterAssigned string      `json:"printer_assigned,omitempty"`
	Status          OrderStatus `json:"status"`
}

// PricingConfigs is the append-only collection of pricing configs. Configs are never
// updated or removed, so a non-empty store stays non-empty.
type PricingConfigs interface {
	// AppendConfig stores cfg and returns it with its assigned ID.
	// A duplicate version fails with ErrConflict.
	AppendConfig(ctx context.Context, cfg pricing.Config) (pricing.Config, error)
	// ListConfigs returns every config in insertion order.
	ListConfigs(ctx context.Context) ([]pricing.Config, error)
}

// Materials is the material catalog.
type Materials interface {
	CreateMaterial(ctx context.Context, m Material) (Material, error)
	GetMaterial(ctx context.Context, id int64) (Material, error)
	ListMaterials(ctx context.Context) ([]Material, error)
	SetMaterialActive(ctx context.Context, id int64, active bool) (Material, error)
}

// Models stores uploaded model metadata.
type Models interface {
	CreateModel(ctx context.Context, m ModelFile) (ModelFile, error)
	GetModel(ctx context.Context, id int64) (ModelFile, error)
}

// Quotes stores issued quotes. There is no update operation.
type Quotes interface {
	CreateQuote(ctx context.Context, q Quote) (Quote, error)
	GetQuote(ctx context.Context, id int64) (Quote, error)
	// ListQuotes returns quotes newest first.
	ListQuotes(ctx context.Context) ([]Quote, error)
}

// Orders stores orders and their items.
type Orders interface {
	// CreateOrder stores o and its items, assigning IDs to both.
	CreateOrder(ctx context.Context, o Order) (Order, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	// UpdateOrderStatus sets the status of the order and all its items, provided the
	// order is still in status from. Otherwise it fails with ErrStatusChanged. An empty
	// trackingCode keeps the current one.
	UpdateOrderStatus(ctx context.Context, id int64, from, status OrderStatus, trackingCode string) (Order, error)
}

// Store is the full set of repositories.
type Store interface {
	PricingConfigs
	Materials
	Models
	Quotes
	Orders
	Close() error
}
