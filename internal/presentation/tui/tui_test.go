package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

func TestDecisionMarkdown(t *testing.T) {
	mc := 0.42
	d := domain.Decision{
		ID:            "c-1",
		Action:        domain.ActionRequestConfirmation,
		AgentID:       "Agent2",
		SuggestedPath: []string{"C", "D", "A"},
		BlockedEdge:   &domain.Edge{From: "C", To: "B"},
		Reason:        "head-on conflict",
		Score:         0.584,
		TrainsSaved:   3,
		Conflict: &domain.Conflict{
			A: "Agent1", B: "Agent2",
			Assessment: domain.RiskAssessment{FeedStatus: domain.FeedNoData, MonteCarlo: &mc},
		},
	}

	md := DecisionMarkdown(d)
	assert.True(t, strings.HasPrefix(md, "# REQUEST_CONFIRMATION\n"))
	assert.Contains(t, md, "| Train | **Agent2** |")
	assert.Contains(t, md, "| Blocked edge | C-B |")
	assert.Contains(t, md, "C → D → A")
	assert.Contains(t, md, "| Score | 0.584 |")
	assert.Contains(t, md, "## Conflict Agent1 / Agent2")
	assert.Contains(t, md, "| Monte Carlo | 0.42 |")
	assert.NotContains(t, md, "Critical")
}

func TestDecisionMarkdown_Normal(t *testing.T) {
	md := DecisionMarkdown(domain.Decision{ID: "c-2", Action: domain.ActionNormal})
	assert.NotContains(t, md, "Train |")
	assert.NotContains(t, md, "## Conflict")
}

func TestRenderDecision(t *testing.T) {
	out, err := RenderDecision(domain.Decision{ID: "c-3", Action: domain.ActionStopBoth, Critical: true})
	require.NoError(t, err)
	assert.Contains(t, out, "STOP_BOTH")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.0.0")
	assert.Contains(t, buf.String(), "conflict engine v1.0.0")
}
