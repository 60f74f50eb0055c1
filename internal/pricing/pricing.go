package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Print time estimation tunables. These describe average shop throughput for capacity
// planning and are expected to be adjusted as printers change.
const (
	PrintThroughputMM3PerMinute = 600.0
	MinimumPrintMinutes         = 15.0
)

// HoursPerProductionDay is the machine time assumed to be available per calendar day.
const HoursPerProductionDay = 8.0

// MaxLeadTimeDays bounds the lead time a quote can promise.
const MaxLeadTimeDays = math.MaxInt32

// PriceInput represents item-level inputs for a single quote line.
type PriceInput struct {
	Material              MaterialKey
	VolumeMM3             float64
	SurfaceMM2            float64 // validated but not used by the formula
	Quantity              int
	PostProcessingMinutes float64
}

// Breakdown contains the itemized price. Component costs are per item, before quantity.
// Money fields are rounded to cents; LeadTimeDays is whole days.
type Breakdown struct {
	Material     float64 `json:"material"`
	Machine      float64 `json:"machine"`
	Base         float64 `json:"base"`
	Post         float64 `json:"post"`
	UnitPrice    float64 `json:"unit_price"`
	Total        float64 `json:"total"`
	LeadTimeDays int     `json:"lead_time_days"`
}

// EstimatePrintTimeHours converts a part volume into estimated machine hours.
func EstimatePrintTimeHours(volumeMM3 float64) float64 {
	volumeCM3 := volumeMM3 / 1000.0
	minutes := math.Max(volumeCM3*1000.0/PrintThroughputMM3PerMinute, MinimumPrintMinutes)
	return minutes / 60.0
}

// Price computes the breakdown for in using cfg's parameters. It has no side effects
// and identical arguments always produce identical output.
func Price(cfg Config, in PriceInput) (Breakdown, error) {
	if err := validateInput(in); err != nil {
		return Breakdown{}, err
	}

	params := cfg.Parameters
	density, hasDensity := params.Density[in.Material]
	costPerGram, hasCost := params.MaterialCostPerGram[in.Material]
	if !hasDensity || !hasCost {
		return Breakdown{}, fmt.Errorf("%w: %q in config %s", ErrUnknownMaterial, in.Material, cfg.Version)
	}

	weightGrams := in.VolumeMM3 / 1000.0 * density
	materialCost := weightGrams * costPerGram

	machineHours := math.Max(EstimatePrintTimeHours(in.VolumeMM3), params.SetupTimeHours)
	machineCost := machineHours * params.MachineRatePerHour

	postCost := in.PostProcessingMinutes * params.PostRatePerMinute

	subtotal := (materialCost + machineCost + params.BaseFee + postCost) * params.RiskMultiplier
	if !finite(subtotal) {
		return Breakdown{}, fmt.Errorf("%w: item price is not representable", ErrInvalidInput)
	}
	itemTotal := math.Max(subtotal, params.MinimumItemPrice)
	orderTotal := math.Max(itemTotal*float64(in.Quantity), params.MinimumOrderPrice)
	if !finite(orderTotal) {
		return Breakdown{}, fmt.Errorf("%w: order total is not representable", ErrInvalidInput)
	}

	days := math.Ceil(machineHours * float64(in.Quantity) / HoursPerProductionDay)
	if !finite(days) || days > MaxLeadTimeDays {
		return Breakdown{}, fmt.Errorf("%w: lead time exceeds %d days", ErrInvalidInput, MaxLeadTimeDays)
	}
	leadTime := int(days)
	if leadTime < 1 {
		leadTime = 1
	}

	return Breakdown{
		Material:     roundCents(materialCost),
		Machine:      roundCents(machineCost),
		Base:         roundCents(params.BaseFee),
		Post:         roundCents(postCost),
		UnitPrice:    roundCents(itemTotal),
		Total:        roundCents(orderTotal),
		LeadTimeDays: leadTime,
	}, nil
}

func validateInput(in PriceInput) error {
	if in.Quantity < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, in.Quantity)
	}

	fields := []struct {
		name  string
		value float64
	}{
		{"volume_mm3", in.VolumeMM3},
		{"surface_mm2", in.SurfaceMM2},
		{"post_processing_minutes", in.PostProcessingMinutes},
	}
	for _, f := range fields {
		if !finite(f.value) || f.value < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidInput, f.name)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// roundCents rounds half away from zero on the shortest decimal form of v, so 2.675
// becomes 2.68 even though the nearest binary value lies just below it.
func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
