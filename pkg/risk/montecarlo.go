package risk

import (
	"hash/fnv"
	"math/rand/v2"
)

// MonteCarlo perturbs a score with Gaussian noise and measures how often it clears the threshold.
type MonteCarlo struct {
	Samples int
	StdDev  float64
	// Blend is the weight of the exceedance fraction in the final score.
	Blend float64
	Seed  uint64
}

// DefaultMonteCarlo returns 100 samples, σ = 0.12, blended at 20 %.
func DefaultMonteCarlo() MonteCarlo {
	return MonteCarlo{
		Samples: 100,
		StdDev:  0.12,
		Blend:   0.2,
		Seed:    42,
	}
}

// Enabled reports whether sampling should run.
func (m MonteCarlo) Enabled() bool {
	return m.Samples > 0 && m.Blend > 0
}

// Exceedance returns the fraction of samples drawn from N(score, StdDev) above threshold.
// The generator is seeded from Seed and key, so a given pair always sees the same draws.
func (m MonteCarlo) Exceedance(score, threshold float64, key string) float64 {
	if m.Samples <= 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	rng := rand.New(rand.NewPCG(m.Seed, h.Sum64()))

	above := 0
	for i := 0; i < m.Samples; i++ {
		if score+rng.NormFloat64()*m.StdDev > threshold {
			above++
		}
	}
	return float64(above) / float64(m.Samples)
}
