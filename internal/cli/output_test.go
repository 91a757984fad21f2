package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"diarybook/internal/amqp"
	"diarybook/internal/core"
	"diarybook/internal/storage"
	"diarybook/internal/worker"
)

func TestOutputFormatterTextFallsBackToPrintln(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Success("plain value"))
	assert.Equal(t, "plain value\n", buf.String())
}

func TestOutputFormatterYAML(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "yaml", Writer: &buf}

	require.NoError(t, f.Success(categoryDeleted{ID: 4}))
	assert.Equal(t, "status: ok\ndata:\n  id: 4\n", buf.String())
}

func TestOutputFormatterTextErrorGoesToErrWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &errOut}

	require.NoError(t, f.Error(CLIError{Code: ErrCodeStorage, Message: "disk full"}))
	assert.Empty(t, out.String())
	assert.Equal(t, "Error [storage]: disk full\n", errOut.String())
}

func TestVerboseLog(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut}

	f.VerboseLog("hidden %d", 1)
	assert.Empty(t, errOut.String())

	f.Verbose = true
	f.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", errOut.String())
	assert.Empty(t, out.String(), "diagnostics never corrupt structured output")
}

func TestFailMarksErrorReported(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out}

	err := f.Fail("save record", fmt.Errorf("save: %w", &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}))

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, ExitFailure, exitErr.Code)
	assert.True(t, exitErr.reported)
	assert.Contains(t, out.String(), `"code": "validation"`)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", &core.ValidationError{Field: "text", Err: core.ErrEmptyText}, ErrCodeValidation},
		{"connection", &storage.ConnectionError{Path: "x.db", Err: errors.New("locked")}, ErrCodeConnection},
		{"storage", fmt.Errorf("wrap: %w", &storage.StorageError{Op: "put", Collection: "entries", Err: errors.New("io")}), ErrCodeStorage},
		{"other", errors.New("boom"), ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err).Code)
		})
	}
}

func TestStatsViewYAMLInlinesStats(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "yaml", Writer: &buf}

	s := core.Stats{Today: core.NewDate(2025, 1, 8)}
	require.NoError(t, f.Success(statsView{Stats: s}))

	var decoded struct {
		Status string         `yaml:"status"`
		Data   map[string]any `yaml:"data"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "ok", decoded.Status)
	assert.Equal(t, "2025-01-08", decoded.Data["today"])
	assert.Contains(t, decoded.Data, "daily_total")
	assert.NotContains(t, decoded.Data, "stats")
}

func TestResolvedViewText(t *testing.T) {
	msg := amqp.RecordChangeMessage{
		Collection: "financeCategories",
		Op:         amqp.OpAdd,
		Key:        "6",
		Timestamp:  time.Date(2025, 1, 8, 9, 30, 0, 0, time.UTC),
	}
	var buf bytes.Buffer

	view := resolvedView{worker.Change{RecordChangeMessage: msg, Record: core.FinanceCategory{ID: 6, Name: "books"}, Found: true}}
	require.NoError(t, view.WriteText(&buf))
	assert.Equal(t, "2025-01-08T09:30:00.000Z add    financeCategories 6\n  {\"id\":6,\"name\":\"books\"}\n", buf.String())

	buf.Reset()
	msg.Op = amqp.OpDelete
	require.NoError(t, resolvedView{worker.Change{RecordChangeMessage: msg}}.WriteText(&buf))
	assert.Equal(t, "2025-01-08T09:30:00.000Z delete financeCategories 6\n", buf.String())
}
