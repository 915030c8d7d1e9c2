// Package predict projects agents along their paths.
package predict

import (
	"math"
	"time"

	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
)

// KmhToMps converts km/h to m/s.
func KmhToMps(kmh float64) float64 {
	if kmh < 0 || math.IsNaN(kmh) {
		return 0
	}
	return kmh * 1000 / 3600
}

// Current returns the position implied by the agent's progress.
// Unresolvable paths fall back to the last reported coordinate.
func Current(g *network.Graph, a domain.Agent) domain.Coordinate {
	return Predict(g, a, 0)
}

// Predict returns the position of a after lookahead at its current speed.
func Predict(g *network.Graph, a domain.Agent, lookahead time.Duration) domain.Coordinate {
	n := len(a.Path)
	if n < 2 || g == nil {
		return a.Reported()
	}

	scaled := domain.Clamp01(a.Progress) * float64(n-1)
	idx := int(math.Floor(scaled))
	if idx > n-2 {
		idx = n - 2
	}
	frac := scaled - float64(idx)

	from, okFrom := g.Station(a.Path[idx])
	to, okTo := g.Station(a.Path[idx+1])
	if !okFrom || !okTo {
		return a.Reported()
	}
	pos := network.Interpolate(from, to, frac)

	remaining := KmhToMps(a.Speed) * lookahead.Seconds()
	if remaining <= 0 {
		return pos
	}

	// Walk edge by edge from the current point.
	for i := idx; i < n-1; i++ {
		u, okU := g.Station(a.Path[i])
		v, okV := g.Station(a.Path[i+1])
		if !okU || !okV {
			return a.Reported()
		}
		length := network.Haversine(u, v)
		if i != idx {
			frac = 0
		}
		left := length * (1 - frac)
		if remaining <= left {
			if length <= 0 {
				return v
			}
			return network.Interpolate(u, v, (frac*length+remaining)/length)
		}
		remaining -= left
	}

	last, ok := g.Station(a.Path[n-1])
	if !ok {
		return a.Reported()
	}
	return last
}
