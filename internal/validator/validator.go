package validator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

// ValidateNetwork checks a snapshot for edges the engine would silently skip
// and for stations no train can reach from the rest of the network.
func ValidateNetwork(snap domain.NetworkSnapshot) error {
	var errors []string

	ids := make([]string, 0, len(snap.Stations))
	for id, c := range snap.Stations {
		if id == "" {
			errors = append(errors, "Station with empty id")
			continue
		}
		if !validCoordinate(c) {
			errors = append(errors, fmt.Sprintf("Invalid coordinate for station '%s': %v,%v", id, c.Lat, c.Lon))
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	adj := make(map[string][]string)
	seen := domain.EdgeSet{}
	for _, e := range snap.Edges {
		switch {
		case e.From == e.To:
			errors = append(errors, fmt.Sprintf("Self loop on '%s'", e.From))
			continue
		case !known[e.From] || !known[e.To]:
			errors = append(errors, fmt.Sprintf("Edge %s references an unknown station", e))
			continue
		}
		if !seen.Add(e.From, e.To) {
			errors = append(errors, fmt.Sprintf("Duplicate edge %s", e))
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
		adj[e.To] = append(adj[e.To], e.From)
	}

	// Crawl from the first station; anything not visited is another component.
	if len(ids) > 0 {
		visited := map[string]bool{}
		queue := []string{ids[0]}
		for len(queue) > 0 {
			currentID := queue[0]
			queue = queue[1:]
			if visited[currentID] {
				continue
			}
			visited[currentID] = true
			for _, next := range adj[currentID] {
				if !visited[next] {
					queue = append(queue, next)
				}
			}
		}
		for _, id := range ids {
			if !visited[id] {
				errors = append(errors, fmt.Sprintf("Station '%s' is unreachable from '%s'", id, ids[0]))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}

func validCoordinate(c domain.Coordinate) bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}
