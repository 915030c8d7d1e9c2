package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_RenamesErrorKey(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(NewHandler(&out, slog.LevelInfo))
	logger.Error("boom", "error", errors.New("bad"))
	assert.Contains(t, out.String(), "err=bad")
	assert.NotContains(t, out.String(), "error=bad")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestBuffer_RingAndFilters(t *testing.T) {
	buf := NewBuffer(3, slog.LevelInfo)
	logger := slog.New(buf.Handler(nil))

	logger.Debug("ignored")
	logger.Info("one", "train_id", "T1")
	logger.Warn("two", "train_id", "T2")
	logger.Info("three")
	logger.Info("four", "train_id", "T1")

	require.Equal(t, 3, buf.Len())
	all := buf.Query("", "", 0)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"two", "three", "four"}, []string{all[0].Message, all[1].Message, all[2].Message})

	assert.Len(t, buf.Query("warn", "", 0), 1)
	t1 := buf.Query("", "T1", 0)
	require.Len(t, t1, 1)
	assert.Equal(t, "four", t1[0].Message)

	last := buf.Query("", "", 1)
	require.Len(t, last, 1)
	assert.Equal(t, "four", last[0].Message)
}

func TestBuffer_ForwardsAndKeepsAttrs(t *testing.T) {
	var out bytes.Buffer
	buf := NewBuffer(10, slog.LevelInfo)
	logger := slog.New(buf.Handler(NewHandler(&out, slog.LevelInfo))).With("train_id", "T9").WithGroup("cycle")

	logger.Info("decided", "action", "NORMAL")

	entries := buf.Query("", "T9", 0)
	require.Len(t, entries, 1)
	assert.Equal(t, "NORMAL", entries[0].Attrs["cycle.action"])
	assert.Contains(t, out.String(), "cycle.action=NORMAL")
}

func TestBuffer_ErrorAttrsAreText(t *testing.T) {
	buf := NewBuffer(10, slog.LevelDebug)
	logger := slog.New(buf.Handler(nil))

	logger.Warn("Risk feed unavailable", "error", errors.New("dial tcp: refused"), "timeout", 250*time.Millisecond)

	entries := buf.Query("", "", 0)
	require.Len(t, entries, 1)
	assert.Equal(t, "dial tcp: refused", entries[0].Attrs["error"])
	assert.Equal(t, "250ms", entries[0].Attrs["timeout"])

	raw, err := json.Marshal(entries[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"error":"dial tcp: refused"`)
}
