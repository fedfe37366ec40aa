package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLeaderboardCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewLeaderboardCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestLeaderboardRanksStoredEvents(t *testing.T) {
	dbPath := seedEventsDB(t)

	output, err := runLeaderboardCommand(t, "--db", dbPath, "--as-of", "2025-09-25")
	require.NoError(t, err)

	assert.Contains(t, output, "Leaderboard (as_of 2025-09-25)")
	assert.Contains(t, output, "50 baseline")

	// Ranked by score descending
	assert.Less(t, strings.Index(output, "Tracked energy-01"), strings.Index(output, "Tracked shipping-01"))
	assert.Less(t, strings.Index(output, "Tracked shipping-01"), strings.Index(output, "Tracked metals-01"))
}

func TestLeaderboardDefaultsToLastRebuild(t *testing.T) {
	dbPath := seedEventsDB(t)

	output, err := runLeaderboardCommand(t, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Leaderboard (as_of 2025-09-24)")
}

func TestLeaderboardInvalidAsOf(t *testing.T) {
	dbPath := seedEventsDB(t)

	_, err := runLeaderboardCommand(t, "--db", dbPath, "--as-of", "not-a-date")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid --as-of")
}

func TestLeaderboardEmptyRegistry(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")

	output, err := runLeaderboardCommand(t, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "No active risks.")
}

func TestLeaderboardVerbose(t *testing.T) {
	dbPath := seedEventsDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Verbose: true}
	cmd := NewLeaderboardCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "uid=energy-01")
	assert.Contains(t, buf.String(), "cluster=energy")
}

func TestLeaderboardJSONOutput(t *testing.T) {
	dbPath := seedEventsDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewLeaderboardCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath, "--as-of", "2025-09-25"})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data should be the leaderboard")
	assert.Equal(t, "2025-09-25", data["as_of"])

	risks, ok := data["risks"].([]any)
	require.True(t, ok)
	require.Len(t, risks, 3)

	top, ok := risks[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "energy-01", top["id"])
	assert.Equal(t, float64(74), top["score"])
}
