package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/TFMV/planscribe/cmd/planscribe/config"
	"github.com/TFMV/planscribe/cmd/planscribe/middleware"
	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/narrative"
)

const seqScanDoc = `[{"Plan": {"Node Type": "Seq Scan", "Relation Name": "orders", "Alias": "o", "Plan Rows": 100}}]`

const seqScanNarrative = narrative.Intro + "\n" +
	"step 1:\n" +
	" perform sequential scan on table orders as o\n there are 100 rows returned\n"

// run executes the CLI against fs and returns stdout.
func run(t *testing.T, fs afero.Fs, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(newApp(fs))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, afero.NewMemMapFs(), "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    dev")
	assert.Contains(t, out, "Commit:     unknown")
}

func TestNarrateCmd_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "plan.json", []byte(seqScanDoc), 0o644))

	out, err := run(t, fs, "", "narrate", "plan.json")
	require.NoError(t, err)
	assert.Equal(t, seqScanNarrative, out)
}

func TestNarrateCmd_Stdin(t *testing.T) {
	out, err := run(t, afero.NewMemMapFs(), seqScanDoc, "narrate", "--workers", "4")
	require.NoError(t, err)
	assert.Equal(t, seqScanNarrative, out)
}

func TestNarrateCmd_OutputFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	out, err := run(t, fs, seqScanDoc, "narrate", "-", "-o", "narrative.txt")
	require.NoError(t, err)
	assert.Empty(t, out)

	written, err := afero.ReadFile(fs, "narrative.txt")
	require.NoError(t, err)
	assert.Equal(t, seqScanNarrative, string(written))
}

func TestNarrateCmd_Errors(t *testing.T) {
	_, err := run(t, afero.NewMemMapFs(), "", "narrate", "missing.json")
	assert.Equal(t, errors.CodeSourceFailed, errors.GetCode(err))

	_, err = run(t, afero.NewMemMapFs(), `{"Plans": [{"Node Type": "Result"}]}`, "narrate")
	assert.True(t, errors.IsMalformedNode(err))

	_, err = run(t, afero.NewMemMapFs(), `not json`, "narrate")
	assert.True(t, errors.IsDecode(err))

	_, err = run(t, afero.NewMemMapFs(), seqScanDoc, "narrate", "--log-level", "loud")
	assert.Error(t, err)
}

func TestBatchCmd(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "plans/a.json", []byte(seqScanDoc), 0o644))
	require.NoError(t, afero.WriteFile(fs, "plans/b.json", []byte(seqScanDoc), 0o644))
	require.NoError(t, afero.WriteFile(fs, "plans/notes.md", []byte("ignored"), 0o644))

	out, err := run(t, fs, "", "batch", "--input-dir", "plans", "--output-dir", "narratives", "--concurrency", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "narrated 2 of 2 documents")

	for _, name := range []string{"narratives/a.txt", "narratives/b.txt"} {
		data, err := afero.ReadFile(fs, name)
		require.NoError(t, err, name)
		assert.Equal(t, seqScanNarrative, string(data))
	}
	exists, err := afero.Exists(fs, "narratives/notes.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBatchCmd_PartialFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "plans/good.json", []byte(seqScanDoc), 0o644))
	require.NoError(t, afero.WriteFile(fs, "plans/bad.json", []byte(`{"Node Type":`), 0o644))

	out, err := run(t, fs, "", "batch", "--input-dir", "plans", "--report", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 documents failed")

	var report struct {
		Total     int `json:"total"`
		Succeeded int `json:"succeeded"`
		Failures  []struct {
			Name string `json:"name"`
			Code string `json:"code"`
		} `json:"failures"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "plans/bad.json", report.Failures[0].Name)
	assert.Equal(t, errors.CodeDecode, report.Failures[0].Code)

	good, err := afero.ReadFile(fs, "plans/good.txt")
	require.NoError(t, err)
	assert.Equal(t, seqScanNarrative, string(good))
}

func TestInspectCmd(t *testing.T) {
	doc := `{"Node Type": "Hash Join", "Plan Rows": 10, "Plans": [
		{"Node Type": "Seq Scan", "Relation Name": "a", "Alias": "a", "Plan Rows": 5},
		{"Node Type": "Seq Scan", "Relation Name": "b", "Alias": "b", "Plan Rows": 2}
	]}`

	t.Run("yaml", func(t *testing.T) {
		out, err := run(t, afero.NewMemMapFs(), doc, "inspect")
		require.NoError(t, err)

		var parsed struct {
			Sequence struct {
				Order []int       `yaml:"order"`
				Steps map[int]int `yaml:"steps"`
			} `yaml:"sequence"`
			Sentences []string `yaml:"sentences"`
		}
		require.NoError(t, yaml.Unmarshal([]byte(out), &parsed))
		assert.Equal(t, []int{1, 2, 0}, parsed.Sequence.Order)
		assert.Equal(t, 3, parsed.Sequence.Steps[0])
		assert.Len(t, parsed.Sentences, 3)
	})

	t.Run("json", func(t *testing.T) {
		out, err := run(t, afero.NewMemMapFs(), doc, "inspect", "--format", "json")
		require.NoError(t, err)

		var parsed map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &parsed))
		assert.Contains(t, parsed, "table")
		assert.Contains(t, parsed["text"], "step 3:")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := run(t, afero.NewMemMapFs(), doc, "inspect", "--format", "xml")
		assert.Error(t, err)
	})
}

func TestExplainCmd_RequiresQuery(t *testing.T) {
	_, err := run(t, afero.NewMemMapFs(), "", "explain")
	assert.True(t, errors.IsInvalidRequest(err))
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PLANSCRIBE_PATTERN", "*.plan")

	a := newApp(afero.NewMemMapFs())
	cmd := newBatchCmd(a)
	require.NoError(t, cmd.Flags().Set("concurrency", "9"))
	require.NoError(t, a.v.BindPFlags(cmd.Flags()))

	cfg, err := a.loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Batch.Concurrency)
	assert.Equal(t, "*.plan", cfg.Batch.Pattern)
	assert.Equal(t, ".", cfg.Batch.InputDir)
	assert.Equal(t, config.DefaultConfig().Server.Address, cfg.Server.Address)
}

func TestLoadConfig_DuckDBOverrides(t *testing.T) {
	t.Setenv("PLANSCRIBE_MOTHERDUCK_TOKEN", "secret")

	a := newApp(afero.NewMemMapFs())
	cmd := newExplainCmd(a)
	require.NoError(t, cmd.Flags().Set("database", "md:analytics"))
	require.NoError(t, cmd.Flags().Set("setup", "CREATE TABLE t (id INTEGER)"))
	require.NoError(t, a.v.BindPFlags(cmd.Flags()))

	cfg, err := a.loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "md:analytics", cfg.DuckDB.DSN)
	assert.Equal(t, "secret", cfg.DuckDB.Token)
	assert.Equal(t, []string{"CREATE TABLE t (id INTEGER)"}, cfg.DuckDB.Setup)
}

func TestSetupLogging(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"unknown": zerolog.InfoLevel,
	}
	for level, want := range tests {
		assert.Equal(t, want, setupLogging(level, io.Discard).GetLevel(), level)
	}
}

func TestLoggerAdapter(t *testing.T) {
	var buf bytes.Buffer
	l := newLoggerAdapter(zerolog.New(&buf), "test")

	l.Info("Plan narrated", "name", "a.json", "nodes", 3, "cached", false, "error", assert.AnError, 42, "skipped")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "a.json", entry["name"])
	assert.Equal(t, float64(3), entry["nodes"])
	assert.Equal(t, false, entry["cached"])
	assert.Equal(t, assert.AnError.Error(), entry["error"])
	assert.Equal(t, "Plan narrated", entry["message"])
}

func TestNewServer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metrics.Address = ""
	require.NoError(t, cfg.Validate())

	srv, err := newServer(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, srv.metricsServer)

	ts := httptest.NewServer(srv.http.Handler)
	defer ts.Close()
	defer srv.close(context.Background())

	resp, err := http.Post(ts.URL+"/v1/narrate", "application/json", strings.NewReader(seqScanDoc))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, seqScanNarrative, string(body))
	assert.NotEmpty(t, resp.Header.Get(middleware.HeaderRequestID))

	resp, err = http.Post(ts.URL+"/v1/narrate", "application/json", strings.NewReader(seqScanDoc))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "hit", resp.Header.Get("X-Planscribe-Cache"))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "planscribe_narrations_total")
	assert.Contains(t, string(body), "planscribe_narrative_cache_hits_total")

	resp, err = http.Post(ts.URL+"/v1/explain", "text/plain", strings.NewReader("SELECT 1"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
