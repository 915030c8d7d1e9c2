package memory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishitkumar8/Railways/pkg/adapters/memory"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/ports"
)

func TestMemoryFeed_Contract(t *testing.T) {
	ports.RunRiskFeedContract(t, memory.NewFeed())
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.yaml")
	content := `
stations:
  A: 0.3
segments:
  A-B: [0.1, 0.3]
agents:
  T1:
    - source: weather
      value: 0.6
      weight: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	feed, err := memory.LoadFile(path)
	require.NoError(t, err)

	ctx := context.Background()
	assert.InDelta(t, 0.3, feed.StationRisk(ctx, "A").Value(), 1e-9)
	assert.InDelta(t, 0.2, feed.SegmentRisk(ctx, "A", "B").Mean(), 1e-9)
	agent := feed.AgentRisk(ctx, "T1")
	require.Equal(t, domain.FeedOK, agent.Status)
	assert.Equal(t, "weather", agent.Contributions[0].Source)
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"segments":{"B-C":[1]}}`), 0o644))

	feed, err := memory.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1.0, feed.SegmentRisk(context.Background(), "B", "C").Mean())
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := memory.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("segments:\n  AB: [1]\n"), 0o644))
	_, err = memory.LoadFile(path)
	assert.ErrorContains(t, err, "invalid segment key")
}
