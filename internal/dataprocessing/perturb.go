package dataprocessing

import (
	"math/rand/v2"

	"drivertree/pkg/contracts/domain"
)

// Perturber scales values by a random factor in [1-variation, 1+variation]
// to mask real figures in demo data. The same seed always yields the same
// output for the same input.
type Perturber struct {
	variation float64
	rng       *rand.Rand
}

// NewPerturber creates a seeded perturber
func NewPerturber(variation float64, seed uint64) *Perturber {
	return &Perturber{
		variation: variation,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Apply returns a copy of records with every non-null value scaled. One
// factor is drawn per record, nulls included, so a value's factor depends
// only on its position.
func (p *Perturber) Apply(records []domain.LongRecord) []domain.LongRecord {
	out := make([]domain.LongRecord, len(records))
	for i, rec := range records {
		factor := 1 - p.variation + 2*p.variation*p.rng.Float64()
		out[i] = rec
		if rec.Value != nil {
			out[i].Value = domain.Float(*rec.Value * factor)
		}
	}
	return out
}
