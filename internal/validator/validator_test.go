package validator

import (
	"strings"
	"testing"

	"github.com/rishitkumar8/Railways/internal/testutils"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
)

func TestValidateNetwork(t *testing.T) {
	// Scenario A: Valid networks
	if err := ValidateNetwork(testutils.LineNetwork(true)); err != nil {
		t.Errorf("Scenario A (line) failed: %v", err)
	}
	if err := ValidateNetwork(network.DefaultSnapshot()); err != nil {
		t.Errorf("Scenario A (default) failed: %v", err)
	}

	// Scenario B: Broken edges
	broken := testutils.LineNetwork(false)
	broken.Edges = append(broken.Edges,
		domain.Edge{From: "C", To: "ghost"},
		domain.Edge{From: "B", To: "B"},
		domain.Edge{From: "B", To: "A"},
	)
	err := ValidateNetwork(broken)
	if err == nil {
		t.Fatal("Scenario B (Broken) should have failed, but got nil")
	}
	for _, want := range []string{"found 3 errors", "unknown station", "Self loop on 'B'", "Duplicate edge B-A"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected %q in error, got: %v", want, err)
		}
	}

	// Scenario C: Island and bad coordinate
	island := testutils.LineNetwork(false)
	island.Stations["Z"] = domain.Coordinate{Lat: 1, Lon: 1}
	island.Stations["X"] = domain.Coordinate{Lat: 120, Lon: 0}
	err = ValidateNetwork(island)
	if err == nil {
		t.Fatal("Scenario C (Island) should have failed, but got nil")
	}
	if !strings.Contains(err.Error(), "Station 'Z' is unreachable from 'A'") {
		t.Errorf("Expected unreachable error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid coordinate for station 'X'") {
		t.Errorf("Expected coordinate error, got: %v", err)
	}
}
