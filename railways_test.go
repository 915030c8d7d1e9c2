package railways

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishitkumar8/Railways/internal/logging"
	"github.com/rishitkumar8/Railways/pkg/config"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
)

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Risk.Threshold = 2
	_, err := New(WithConfig(cfg))
	require.Error(t, err)
	assert.Len(t, config.ValidationErrors(err), 1)
}

func TestEngine_DefaultGraphCycle(t *testing.T) {
	eng, err := New(WithGraph(network.DefaultSnapshot()), WithMetrics())
	require.NoError(t, err)

	d, err := eng.Evaluate(context.Background(), domain.NetworkSnapshot{}, []domain.Agent{
		{ID: "T1", Path: []string{"A", "B", "D"}, Speed: 110, Priority: domain.IntPtr(2)},
		{ID: "T2", Path: []string{"E", "F"}, Speed: 90, Progress: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionNormal, d.Action)

	h, err := eng.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, h.GraphNodes)
	assert.Equal(t, int64(1), h.Cycles)

	rec := httptest.NewRecorder()
	eng.MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "railways_cycles_total 1")
	assert.Contains(t, rec.Body.String(), "railways_pair_evaluations_total 1")
}

func TestEngine_MetricsDisabled(t *testing.T) {
	eng, err := New()
	require.NoError(t, err)
	assert.Nil(t, eng.MetricsHandler())
}

func TestEngine_LogBuffer(t *testing.T) {
	buf := logging.NewBuffer(10, slog.LevelInfo)
	eng, err := New(WithLogBuffer(buf))
	require.NoError(t, err)

	_, err = eng.Sync(context.Background(), network.DefaultSnapshot())
	require.NoError(t, err)

	entries, total := eng.Logs("info", "", 0)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "Graph synced: 6 stations, 7 edges")
}
