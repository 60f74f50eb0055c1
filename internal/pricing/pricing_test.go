package pricing

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func plaInput(volume float64, quantity int) PriceInput {
	return PriceInput{Material: PLA, VolumeMM3: volume, SurfaceMM2: 20000, Quantity: quantity}
}

func TestPrice_DefaultPLAScenario(t *testing.T) {
	result, err := Price(DefaultConfig(), plaInput(50000, 1))
	if err != nil {
		t.Fatalf("Price: %v", err)
	}

	nearlyEqual(t, "material", result.Material, 2.79)
	nearlyEqual(t, "machine", result.Machine, 20.83)
	nearlyEqual(t, "base", result.Base, 4.0)
	nearlyEqual(t, "post", result.Post, 0)
	// Full precision subtotal is (2.79 + 20.8333.. + 4) * 1.1 = 30.3856..
	nearlyEqual(t, "unit_price", result.UnitPrice, 30.39)
	nearlyEqual(t, "total", result.Total, 30.39)
	if result.LeadTimeDays != 1 {
		t.Fatalf("lead_time_days = %d, want 1", result.LeadTimeDays)
	}
}

func TestPrice_QuantityMultipliesUnroundedItemTotal(t *testing.T) {
	result, err := Price(DefaultConfig(), plaInput(50000, 3))
	if err != nil {
		t.Fatalf("Price: %v", err)
	}

	nearlyEqual(t, "unit_price", result.UnitPrice, 30.39)
	// 30.385666.. * 3 = 91.157, not 30.39 * 3 = 91.17.
	nearlyEqual(t, "total", result.Total, 91.16)
	nearlyEqual(t, "material", result.Material, 2.79)
}

func TestPrice_PostProcessing(t *testing.T) {
	in := plaInput(50000, 1)
	in.PostProcessingMinutes = 10

	result, err := Price(DefaultConfig(), in)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}

	nearlyEqual(t, "post", result.Post, 8)
	// (2.79 + 20.8333.. + 4 + 8) * 1.1 = 39.1856..
	nearlyEqual(t, "unit_price", result.UnitPrice, 39.19)
}

func TestPrice_MinimumOrderPriceFloor(t *testing.T) {
	result, err := Price(DefaultConfig(), plaInput(1000, 1))
	if err != nil {
		t.Fatalf("Price: %v", err)
	}

	nearlyEqual(t, "machine", result.Machine, 3.75)
	nearlyEqual(t, "unit_price", result.UnitPrice, 8.59)
	nearlyEqual(t, "total", result.Total, 15)
}

func TestPrice_MinimumItemPriceFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parameters.BaseFee = 0
	cfg.Parameters.MachineRatePerHour = 0

	result, err := Price(cfg, plaInput(1000, 4))
	if err != nil {
		t.Fatalf("Price: %v", err)
	}

	nearlyEqual(t, "unit_price", result.UnitPrice, 6)
	nearlyEqual(t, "total", result.Total, 24)
}

func TestPrice_LeadTimeUsesEightHourDays(t *testing.T) {
	// 500 cm3 at 600 mm3/min is 833.3 minutes, 13.89 h per item.
	result, err := Price(DefaultConfig(), plaInput(500000, 2))
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if result.LeadTimeDays != 4 {
		t.Fatalf("lead_time_days = %d, want 4", result.LeadTimeDays)
	}
}

func TestPrice_SetupTimeDominatesShortPrints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parameters.SetupTimeHours = 2

	result, err := Price(cfg, plaInput(50000, 1))
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	nearlyEqual(t, "machine", result.Machine, 30)
}

func TestPrice_SurfaceDoesNotAffectPrice(t *testing.T) {
	a := plaInput(50000, 2)
	b := a
	b.SurfaceMM2 = 999999

	ra, err := Price(DefaultConfig(), a)
	if err != nil {
		t.Fatalf("Price a: %v", err)
	}
	rb, err := Price(DefaultConfig(), b)
	if err != nil {
		t.Fatalf("Price b: %v", err)
	}
	if ra != rb {
		t.Fatalf("surface changed breakdown: %+v vs %+v", ra, rb)
	}
}

func TestPrice_IsPure(t *testing.T) {
	cfg := DefaultConfig()
	before := cfg.Clone()
	in := PriceInput{Material: PETG, VolumeMM3: 123456.789, SurfaceMM2: 4321, Quantity: 7, PostProcessingMinutes: 12.5}

	first, err := Price(cfg, in)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	second, err := Price(cfg, in)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}

	if first != second {
		t.Fatalf("repeated Price differs: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(cfg, before) {
		t.Fatalf("Price mutated config")
	}
}

func TestPrice_TotalIsMonotonicInQuantity(t *testing.T) {
	cfg := DefaultConfig()
	for _, volume := range []float64{0, 1000, 50000, 750000} {
		previous := -1.0
		for q := 1; q <= 60; q++ {
			result, err := Price(cfg, PriceInput{Material: ASA, VolumeMM3: volume, Quantity: q})
			if err != nil {
				t.Fatalf("Price(volume=%v, q=%d): %v", volume, q, err)
			}
			if result.Total < previous {
				t.Fatalf("total decreased at volume=%v q=%d: %v < %v", volume, q, result.Total, previous)
			}
			previous = result.Total
		}
	}
}

func TestPrice_FloorsHold(t *testing.T) {
	cfg := DefaultConfig()
	params := cfg.Parameters
	for _, material := range params.Materials() {
		for _, volume := range []float64{0, 10, 5000, 90000, 2e6} {
			for _, minutes := range []float64{0, 0.5, 30} {
				for _, q := range []int{1, 2, 10} {
					result, err := Price(cfg, PriceInput{Material: material, VolumeMM3: volume, Quantity: q, PostProcessingMinutes: minutes})
					if err != nil {
						t.Fatalf("Price: %v", err)
					}
					if result.UnitPrice < params.MinimumItemPrice {
						t.Fatalf("unit_price %v below minimum", result.UnitPrice)
					}
					if result.Total < params.MinimumOrderPrice {
						t.Fatalf("total %v below minimum", result.Total)
					}
					if result.LeadTimeDays < 1 {
						t.Fatalf("lead_time_days %d below 1", result.LeadTimeDays)
					}
				}
			}
		}
	}
}

func TestPrice_Errors(t *testing.T) {
	onlyDensity := DefaultConfig()
	onlyDensity.Parameters.Density["TPU"] = 1.21

	hugeRate := DefaultConfig()
	hugeRate.Parameters.MachineRatePerHour = 1e308

	hugeMinimum := DefaultConfig()
	hugeMinimum.Parameters.MinimumItemPrice = 1e308

	cases := []struct {
		name string
		cfg  Config
		in   PriceInput
		want error
	}{
		{"unknown material", DefaultConfig(), PriceInput{Material: "NYLON", VolumeMM3: 1000, Quantity: 1}, ErrUnknownMaterial},
		{"material missing cost", onlyDensity, PriceInput{Material: "TPU", VolumeMM3: 1000, Quantity: 1}, ErrUnknownMaterial},
		{"zero quantity", DefaultConfig(), PriceInput{Material: PLA, VolumeMM3: 1000, Quantity: 0}, ErrInvalidQuantity},
		{"negative quantity", DefaultConfig(), PriceInput{Material: PLA, VolumeMM3: 1000, Quantity: -2}, ErrInvalidQuantity},
		{"negative volume", DefaultConfig(), PriceInput{Material: PLA, VolumeMM3: -1, Quantity: 1}, ErrInvalidInput},
		{"negative surface", DefaultConfig(), PriceInput{Material: PLA, SurfaceMM2: -1, Quantity: 1}, ErrInvalidInput},
		{"negative minutes", DefaultConfig(), PriceInput{Material: PLA, Quantity: 1, PostProcessingMinutes: -3}, ErrInvalidInput},
		{"nan volume", DefaultConfig(), PriceInput{Material: PLA, VolumeMM3: math.NaN(), Quantity: 1}, ErrInvalidInput},
		{"item price overflows", hugeRate, PriceInput{Material: PLA, VolumeMM3: 50000, Quantity: 10}, ErrInvalidInput},
		{"order total overflows", hugeMinimum, PriceInput{Material: PLA, VolumeMM3: 1000, Quantity: 10}, ErrInvalidInput},
		{"lead time overflows", DefaultConfig(), PriceInput{Material: PLA, VolumeMM3: 1e25, Quantity: 1}, ErrInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Price(tc.cfg, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if result != (Breakdown{}) {
				t.Fatalf("expected zero breakdown on error, got %+v", result)
			}
		})
	}
}

func TestPrice_LongestRepresentableLeadTime(t *testing.T) {
	cfg := DefaultConfig()
	// Machine hours for MaxLeadTimeDays full production days.
	volume := float64(MaxLeadTimeDays) * HoursPerProductionDay * 60 * PrintThroughputMM3PerMinute

	result, err := Price(cfg, PriceInput{Material: PLA, VolumeMM3: volume, Quantity: 1})
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	if result.LeadTimeDays != MaxLeadTimeDays {
		t.Fatalf("lead time = %d, want %d", result.LeadTimeDays, MaxLeadTimeDays)
	}

	if _, err := Price(cfg, PriceInput{Material: PLA, VolumeMM3: volume, Quantity: 2}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidInput)
	}
}

func TestEstimatePrintTimeHours(t *testing.T) {
	nearlyEqual(t, "empty part", EstimatePrintTimeHours(0), 0.25)
	nearlyEqual(t, "exactly fifteen minutes", EstimatePrintTimeHours(9000), 0.25)
	nearlyEqual(t, "large part", EstimatePrintTimeHours(600000), 1000.0/60.0)
}

func TestRoundCents_HalfAwayFromZeroOnDecimalForm(t *testing.T) {
	cases := map[float64]float64{
		2.675:  2.68,
		0.125:  0.13,
		30.385: 30.39,
		1.004:  1.0,
	}
	for in, want := range cases {
		if got := roundCents(in); got != want {
			t.Fatalf("roundCents(%v) = %v, want %v", in, got, want)
		}
	}
}
