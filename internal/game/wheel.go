package game

import "math/rand"

// DefaultSectors is the fallback bonus-wheel sector list used when the
// config file doesn't specify game.wheel_sectors.
var DefaultSectors = []int{0, 100, 250, 350, 400, 450, 500, 600, 750, 1000}

// Wheel picks a weighted-random sector from a fixed list of integer
// sectors. A nil Weights slice (or one of the wrong length) falls back to
// uniform weights across Sectors.
type Wheel struct {
	Sectors []int
	Weights []int
}

// NewUniformWheel builds a Wheel with equal weight on every sector.
func NewUniformWheel(sectors []int) *Wheel {
	if len(sectors) == 0 {
		sectors = DefaultSectors
	}
	return &Wheel{Sectors: sectors}
}

// Spin returns one sector value, chosen with probability proportional to
// its weight (uniform if Weights is unset or mismatched in length).
func (w *Wheel) Spin(rng *rand.Rand) int {
	sectors := w.Sectors
	if len(sectors) == 0 {
		sectors = DefaultSectors
	}

	weights := w.Weights
	if len(weights) != len(sectors) {
		weights = nil
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	if weights == nil {
		return sectors[rng.Intn(len(sectors))]
	}

	total := 0
	for _, wt := range weights {
		total += wt
	}
	if total <= 0 {
		return sectors[rng.Intn(len(sectors))]
	}

	pick := rng.Intn(total)
	for i, wt := range weights {
		if pick < wt {
			return sectors[i]
		}
		pick -= wt
	}
	return sectors[len(sectors)-1]
}
