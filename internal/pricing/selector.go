package pricing

import "time"

// SelectCurrent returns the config with the latest EffectiveFrom. Ties go to the most
// recently inserted config (larger ID), then to the larger Version string, so the
// result never depends on the order of configs.
func SelectCurrent(configs []Config) (Config, error) {
	var (
		best  Config
		found bool
	)
	for _, c := range configs {
		if !found || newer(c, best) {
			best = c
			found = true
		}
	}
	if !found {
		return Config{}, ErrNoConfigAvailable
	}
	return best.Clone(), nil
}

// SelectAsOf returns the config that was current at the given instant, ignoring configs
// that only take effect later.
func SelectAsOf(configs []Config, at time.Time) (Config, error) {
	eligible := make([]Config, 0, len(configs))
	for _, c := range configs {
		if !c.EffectiveFrom.After(at) {
			eligible = append(eligible, c)
		}
	}
	return SelectCurrent(eligible)
}

func newer(a, b Config) bool {
	if !a.EffectiveFrom.Equal(b.EffectiveFrom) {
		return a.EffectiveFrom.After(b.EffectiveFrom)
	}
	if a.ID != b.ID {
		return a.ID > b.ID
	}
	return a.Version > b.Version
}
