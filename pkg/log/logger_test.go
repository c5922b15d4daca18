package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	scierrors "github.com/YuminosukeSato/scieval/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestZerologLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug).With(ModelNameKey, "Decision Tree")

	logger.Info("fold scored",
		FoldKey, 3,
		ScoringKey, "recall_weighted",
		ScoreKey, 0.875,
		"converged", true,
	)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "fold scored", entry["message"])
	assert.Equal(t, "Decision Tree", entry[ModelNameKey])
	assert.Equal(t, 3.0, entry[FoldKey])
	assert.Equal(t, "recall_weighted", entry[ScoringKey])
	assert.Equal(t, 0.875, entry[ScoreKey])
	assert.Equal(t, true, entry["converged"])
}

func TestZerologLogger_ErrorCarriesStacktrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo)

	err := scierrors.NewValueError("CrossValScore", "empty data")
	logger.Error("cross validation failed", ErrAttrKey, err, FoldKey, 0)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "error", lines[0]["level"])
	assert.Contains(t, lines[0][ErrAttrKey], "empty data")
	assert.NotEmpty(t, lines[0][StacktraceAttrKey])
}

func TestZerologLogger_Enabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelWarn)
	ctx := context.Background()

	assert.False(t, logger.Enabled(ctx, LevelDebug))
	assert.False(t, logger.Enabled(ctx, LevelInfo))
	assert.True(t, logger.Enabled(ctx, LevelWarn))
	assert.True(t, logger.Enabled(ctx, LevelError))

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "", want: LevelInfo},
		{in: "warning", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLogger_RoutesWarnings(t *testing.T) {
	prev := GetLogger()
	defer SetLogger(prev)
	defer scierrors.SetZerologWarnFunc(nil)

	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "info"))

	scierrors.Warn(scierrors.NewUndefinedMetricWarning("precision", "no predicted samples", 0))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "warnings", lines[0][ComponentKey])
	assert.Contains(t, lines[0]["message"], "'precision' is ill-defined")

	assert.Error(t, SetupLogger(&buf, "loud"))
}

func TestProviders(t *testing.T) {
	var buf bytes.Buffer
	var provider LoggerProvider = NewZerologProvider(&buf, LevelInfo)
	provider.GetLoggerWithName("model_selection").Info("named")
	provider.SetLevel(LevelError)
	provider.GetLogger().Info("suppressed")

	assert.Contains(t, buf.String(), `"ml.component":"model_selection"`)
	assert.NotContains(t, buf.String(), "suppressed")

	tp := NewTestLoggerProvider(LevelDebug)
	provider = tp
	provider.GetLoggerWithName("evaluation").Debug("captured")
	assert.True(t, tp.Logger().ContainsField(ComponentKey, "evaluation"))
}

func TestTestLogger_ConcurrentWith(t *testing.T) {
	logger := NewTestLogger(LevelInfo)

	var wg sync.WaitGroup
	for fold := 0; fold < 8; fold++ {
		wg.Add(1)
		go func(fold int) {
			defer wg.Done()
			logger.With(FoldKey, fold).Info(fmt.Sprintf("fold %d done", fold))
		}(fold)
	}
	wg.Wait()

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 8)
	assert.True(t, logger.ContainsField(FoldKey, 7.0))
	assert.Len(t, logger.EntriesWithMessage("fold 0 done"), 1)

	logger.Clear()
	assert.Empty(t, logger.String())
}
