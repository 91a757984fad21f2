package cli

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func mustRun(t *testing.T, db string, args ...string) cliResult {
	t.Helper()
	res := runCLI(t, db, "", args...)
	require.Equal(t, ExitSuccess, res.code, "args %v\nstdout: %s\nstderr: %s", args, res.stdout, res.stderr)
	return res
}

func TestMigrateReportsVersionAndIsIdempotent(t *testing.T) {
	db := cliEnv(t)

	for i := 0; i < 2; i++ {
		res := mustRun(t, db, "--format", "json", "migrate")
		var resp struct {
			Status string    `json:"status"`
			Data   storeInfo `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, db, resp.Data.Path)
		assert.Equal(t, uint(2), resp.Data.SchemaVersion)
	}

	res := mustRun(t, db, "category", "list", "--format", "json")
	newGoldie(t).Assert(t, "category_list_json", []byte(res.stdout))
}

func TestEntrySaveAndList(t *testing.T) {
	db := cliEnv(t)

	res := mustRun(t, db, "entry", "save", "--category", "general", "first", "draft")
	assert.Contains(t, res.stdout, "Saved general entry for 2025-01-08")

	// Piped text replaces the entry for the same day and category.
	res = runCLI(t, db, "final text\nsecond line\n", "entry", "save", "-c", "general")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = mustRun(t, db, "entry", "list", "--format", "json")
	var resp struct {
		Data entryList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "2025-01-08", resp.Data.Date.String())
	require.Len(t, resp.Data.Entries, 1)
	assert.Equal(t, "final text\nsecond line", resp.Data.Entries[0].Text)

	res = mustRun(t, db, "entry", "list")
	assert.Contains(t, res.stdout, "[general]")
	assert.Contains(t, res.stdout, "second line")

	res = mustRun(t, db, "entry", "list", "--date", "2024-02-29")
	assert.Contains(t, res.stdout, "No entries for 2024-02-29")
}

func TestEntrySaveRejectsEmptyText(t *testing.T) {
	db := cliEnv(t)

	res := runCLI(t, db, "   \n", "entry", "save")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error [validation]")
	assert.Contains(t, res.stderr, "(text)")
	assert.NotContains(t, res.stderr, "Error: ", "reported errors are not printed twice")
}

func TestFinanceAddAndList(t *testing.T) {
	db := cliEnv(t)

	res := mustRun(t, db, "finance", "add", "12,50", "--category", "meal", "--note", "lunch")
	assert.Contains(t, res.stdout, "Recorded #1: 12.50 meal on 2025-01-08")
	mustRun(t, db, "finance", "add", "3", "-c", "transport")
	mustRun(t, db, "finance", "add", "7", "-c", "meal", "--date", "2025-01-07")

	res = mustRun(t, db, "finance", "list")
	assert.Contains(t, res.stdout, "lunch")
	assert.Contains(t, res.stdout, "12.50")
	assert.Contains(t, res.stdout, "3.00")
	assert.NotContains(t, res.stdout, "7.00")

	res = mustRun(t, db, "finance", "list", "--date", "2025-01-07", "--format", "yaml")
	var resp struct {
		Status string `yaml:"status"`
		Data   struct {
			Date    string `yaml:"date"`
			Records []struct {
				ID       int64  `yaml:"id"`
				Category string `yaml:"category"`
				Amount   string `yaml:"amount"`
			} `yaml:"records"`
		} `yaml:"data"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "2025-01-07", resp.Data.Date)
	require.Len(t, resp.Data.Records, 1)
	assert.Equal(t, int64(3), resp.Data.Records[0].ID)
	assert.Equal(t, "7", resp.Data.Records[0].Amount)
}

func TestFinanceAddInvalidAmount(t *testing.T) {
	db := cliEnv(t)

	res := runCLI(t, db, "", "--format", "json", "finance", "add", "abc", "-c", "meal")
	assert.Equal(t, ExitFailure, res.code)
	newGoldie(t).Assert(t, "finance_add_invalid_json", []byte(res.stdout))

	res = mustRun(t, db, "finance", "list", "--format", "json")
	assert.Contains(t, res.stdout, `"records": []`)
}

func TestCategoryCommands(t *testing.T) {
	db := cliEnv(t)

	res := mustRun(t, db, "category", "add", "books")
	assert.Contains(t, res.stdout, "Added category #6 books")

	mustRun(t, db, "finance", "add", "20", "-c", "books")

	res = mustRun(t, db, "category", "delete", "6")
	assert.Contains(t, res.stdout, "Deleted category #6")
	// Deleting a missing id succeeds.
	mustRun(t, db, "category", "delete", "6")

	res = mustRun(t, db, "category", "list")
	assert.NotContains(t, res.stdout, "books")
	assert.Contains(t, res.stdout, "shopping")

	// The record filed under the deleted category is kept.
	res = mustRun(t, db, "finance", "list")
	assert.Contains(t, res.stdout, "books")

	for _, id := range []string{"abc", "0", "-3"} {
		res = runCLI(t, db, "", "category", "delete", "--", id)
		assert.Equal(t, ExitFailure, res.code, "id %s", id)
		assert.Contains(t, res.stderr, "(id)")
	}
}

func TestStatsGolden(t *testing.T) {
	db := cliEnv(t)

	mustRun(t, db, "finance", "add", "5", "-c", "meal", "--date", "2025-01-08")
	mustRun(t, db, "finance", "add", "10", "-c", "meal", "--date", "2025-01-03")
	mustRun(t, db, "finance", "add", "20", "-c", "meal", "--date", "2025-01-01")
	mustRun(t, db, "finance", "add", "100", "-c", "meal", "--date", "2024-12-31")

	res := mustRun(t, db, "stats", "--today", "2025-01-08", "--format", "json")
	newGoldie(t).Assert(t, "stats_json", []byte(res.stdout))

	// Without --today the pinned clock supplies the same day.
	res = mustRun(t, db, "stats")
	assert.Contains(t, res.stdout, "Spending as of 2025-01-08")
	assert.Contains(t, res.stdout, "35.00")
	assert.Contains(t, res.stdout, "Wed 2025-01-08")
}

func TestStatsInvalidDay(t *testing.T) {
	db := cliEnv(t)

	res := runCLI(t, db, "", "stats", "--today", "2025-02-30")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "(date)")
}

func TestStoreUnavailable(t *testing.T) {
	cliEnv(t)
	// A directory is not a database file.
	db := t.TempDir()

	res := runCLI(t, db, "", "--format", "json", "category", "list")
	assert.Equal(t, ExitFailure, res.code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConnection, resp.Error.Code)
}

func TestWatchRequiresAMQP(t *testing.T) {
	db := cliEnv(t)

	res := runCLI(t, db, "", "watch")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, "AMQP_URL is not configured")
}
