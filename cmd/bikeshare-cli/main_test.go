package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paveg/bikeshare/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name string, columns []string, rows []testutil.Row) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(columns, ","))
	b.WriteString("\n")
	for _, r := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = r[c]
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func fixtures(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	day := writeFixture(t, dir, "day.csv", testutil.DayColumns, testutil.DayRows)
	hour := writeFixture(t, dir, "hour.csv", testutil.HourColumns, testutil.HourRows)
	return day, hour
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestViewsCommandJSON(t *testing.T) {
	day, hour := fixtures(t)

	out, err := execute(t, "views", "--day", day, "--hour", hour,
		"--season", "Fall", "--mode", "sum", "--view", "totals_by_weather", "--log-level", "error")
	require.NoError(t, err)

	var doc struct {
		Views []struct {
			Name      string `json:"name"`
			Available bool   `json:"available"`
			Rows      []struct {
				Value float64 `json:"value"`
				Count int     `json:"count"`
			} `json:"rows"`
		} `json:"views"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Views, 1)
	assert.Equal(t, "totals_by_weather", doc.Views[0].Name)
	assert.True(t, doc.Views[0].Available)
	require.Len(t, doc.Views[0].Rows, 1)
	assert.InDelta(t, 9900, doc.Views[0].Rows[0].Value, 1e-9)
	assert.Equal(t, 2, doc.Views[0].Rows[0].Count)
}

func TestViewsCommandFileOutput(t *testing.T) {
	day, hour := fixtures(t)

	tests := []struct {
		name   string
		file   string
		prefix string
	}{
		{"csv", "views.csv", "view,status"},
		{"xlsx", "views.xlsx", "PK"},
		{"parquet", "views.parquet", "PAR1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			_, err := execute(t, "views", "--day", day, "--hour", hour, "--out", path, "--log-level", "error")
			require.NoError(t, err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte(tt.prefix)), "output starts with %q", tt.prefix)
		})
	}
}

func TestViewsCommandErrors(t *testing.T) {
	day, hour := fixtures(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad hours", []string{"--hours", "7-25"}, "high hour"},
		{"unparseable hours", []string{"--hours", "morning"}, "invalid hour range"},
		{"bad mode", []string{"--mode", "median"}, "median"},
		{"bad format", []string{"--format", "xml"}, "xml"},
		{"unknown view", []string{"--view", "nope"}, "unknown view"},
		{"unknown season code", []string{"--season", "9"}, "unknown season code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"views", "--day", day, "--hour", hour, "--log-level", "error"}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestViewsCommandRequiresSource(t *testing.T) {
	t.Setenv("BIKESHARE_DAY_SOURCE", "")
	t.Setenv("BIKESHARE_HOUR_SOURCE", "")

	_, err := execute(t, "views")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestConfigFileAndFlagOverrides(t *testing.T) {
	day, hour := fixtures(t)
	cfgPath := filepath.Join(t.TempDir(), "bikeshare.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"day_source: "+day+"\nhour_source: /does/not/exist.csv\ndefault_mode: sum\nlog_level: error\n"), 0o600))

	opts := &globalOptions{cfgFile: cfgPath, hourSource: hour}
	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, day, cfg.DaySource)
	assert.Equal(t, hour, cfg.HourSource)
	assert.Equal(t, "sum", cfg.DefaultMode)
}

func TestSchemaCommand(t *testing.T) {
	day, _ := fixtures(t)

	out, err := execute(t, "schema", "--day", day, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "day: numeric, 8 rows")
	assert.Contains(t, out, "absorbed cells: 0")
	assert.Contains(t, out, "hour: not configured")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "bikeshare "))

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Equal(t, false, info["release"])
}
