package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Simplici0/printquote/internal/pricing"
)

// Memory is an in-process Store. Writers hold the lock exclusively, so readers see a
// config list from before or after an append, never in between.
type Memory struct {
	mu sync.RWMutex

	configs   []pricing.Config
	materials map[int64]Material
	models    map[int64]ModelFile
	quotes    map[int64]Quote
	orders    map[int64]Order

	nextID map[string]int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		materials: make(map[int64]Material),
		models:    make(map[int64]ModelFile),
		quotes:    make(map[int64]Quote),
		orders:    make(map[int64]Order),
		nextID:    make(map[string]int64),
	}
}

func (m *Memory) next(kind string) int64 {
	m.nextID[kind]++
	return m.nextID[kind]
}

func (m *Memory) AppendConfig(_ context.Context, cfg pricing.Config) (pricing.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.configs {
		if existing.Version == cfg.Version {
			return pricing.Config{}, fmt.Errorf("pricing config version %q: %w", cfg.Version, ErrConflict)
		}
	}

	stored := cfg.Clone()
	stored.ID = m.next("config")
	m.configs = append(m.configs, stored)
	return stored.Clone(), nil
}

func (m *Memory) ListConfigs(_ context.Context) ([]pricing.Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]pricing.Config, len(m.configs))
	for i, c := range m.configs {
		out[i] = c.Clone()
	}
	return out, nil
}

func (m *Memory) CreateMaterial(_ context.Context, mat Material) (Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mat.ID = m.next("material")
	m.materials[mat.ID] = mat
	return mat, nil
}

func (m *Memory) GetMaterial(_ context.Context, id int64) (Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mat, ok := m.materials[id]
	if !ok {
		return Material{}, fmt.Errorf("material %d: %w", id, ErrNotFound)
	}
	return mat, nil
}

func (m *Memory) ListMaterials(_ context.Context) ([]Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Material, 0, len(m.materials))
	for _, mat := range m.materials {
		out = append(out, mat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SetMaterialActive(_ context.Context, id int64, active bool) (Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mat, ok := m.materials[id]
	if !ok {
		return Material{}, fmt.Errorf("material %d: %w", id, ErrNotFound)
	}
	mat.Active = active
	m.materials[id] = mat
	return mat, nil
}

func (m *Memory) CreateModel(_ context.Context, model ModelFile) (ModelFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	model.ID = m.next("model")
	m.models[model.ID] = model
	return model, nil
}

func (m *Memory) GetModel(_ context.Context, id int64) (ModelFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	model, ok := m.models[id]
	if !ok {
		return ModelFile{}, fmt.Errorf("model %d: %w", id, ErrNotFound)
	}
	return model, nil
}

func (m *Memory) CreateQuote(_ context.Context, q Quote) (Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q.ID = m.next("quote")
	m.quotes[q.ID] = q
	return q, nil
}

func (m *Memory) GetQuote(_ context.Context, id int64) (Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.quotes[id]
	if !ok {
		return Quote{}, fmt.Errorf("quote %d: %w", id, ErrNotFound)
	}
	return q, nil
}

func (m *Memory) ListQuotes(_ context.Context) ([]Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Quote, 0, len(m.quotes))
	for _, q := range m.quotes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) CreateOrder(_ context.Context, o Order) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o.ID = m.next("order")
	items := make([]OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.ID = m.next("order_item")
		item.OrderID = o.ID
		items[i] = item
	}
	o.Items = items
	m.orders[o.ID] = o
	return copyOrder(o), nil
}

func (m *Memory) GetOrder(_ context.Context, id int64) (Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return copyOrder(o), nil
}

func (m *Memory) UpdateOrderStatus(_ context.Context, id int64, from, status OrderStatus, trackingCode string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if o.Status != from {
		return Order{}, fmt.Errorf("order %d is no longer %s: %w", id, from, ErrStatusChanged)
	}

	o = copyOrder(o)
	o.Status = status
	if trackingCode != "" {
		o.TrackingCode = trackingCode
	}
	for i := range o.Items {
		o.Items[i].Status = status
	}
	m.orders[id] = o
	return copyOrder(o), nil
}

func (m *Memory) Close() error { return nil }

func copyOrder(o Order) Order {
	items := make([]OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
