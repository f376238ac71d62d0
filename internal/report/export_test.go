package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindharmony/mindharmony/internal/instrument"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "mindharmony-report-2026-03-07.json", FileName(testNow, FormatJSON))
	assert.Equal(t, "mindharmony-report-2026-03-07.html", FileName(testNow, FormatHTML))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "markdown": FormatMarkdown, "md": FormatMarkdown, "html": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestArtifactJSONShape(t *testing.T) {
	r := Aggregate("小林", submit(t, instrument.PHQ9, 1))
	data, err := Render(r.Artifact(testNow), FormatJSON)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.ElementsMatch(t, []string{"user", "date", "results", "aiSummary"}, keys(doc))
	assert.JSONEq(t, `"2026/3/7"`, string(doc["date"]))
	assert.JSONEq(t, `null`, string(doc["aiSummary"]))

	var results []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["results"], &results))
	require.Len(t, results, 1)
	assert.ElementsMatch(t,
		[]string{"id", "timestamp", "scaleId", "score", "maxScore", "severity", "answers"},
		keys(results[0]))
	assert.JSONEq(t, `[1,1,1,1,1,1,1,1,1]`, string(results[0]["answers"]))
}

func TestArtifactIncludesAnalysis(t *testing.T) {
	r := Aggregate("x", submit(t, instrument.GAD7, 3))
	r.attach(sampleAnalysis(true))

	data, err := Render(r.Artifact(testNow), FormatJSON)
	require.NoError(t, err)

	var doc struct {
		AISummary struct {
			Summary          string   `json:"summary"`
			CopingStrategies []string `json:"copingStrategies"`
			IsCrisis         bool     `json:"isCrisis"`
		} `json:"aiSummary"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.True(t, doc.AISummary.IsCrisis)
	assert.Len(t, doc.AISummary.CopingStrategies, 3)
}

func TestRenderMarkdownAndHTML(t *testing.T) {
	r := Aggregate("小林", withScore(t, instrument.PHQ9, 12))
	r.attach(sampleAnalysis(true))
	a := r.Artifact(testNow)

	md, err := Render(a, FormatMarkdown)
	require.NoError(t, err)
	text := string(md)
	assert.Contains(t, text, "| PHQ-9 | 12 / 27 |")
	assert.Contains(t, text, CrisisTitle)
	assert.Contains(t, text, "1. 规律作息")

	html, err := Render(a, FormatHTML)
	require.NoError(t, err)
	page := string(html)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<li>规律作息</li>")
}

func TestExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	r := Aggregate("x", submit(t, instrument.GAD7, 1))

	path, err := Export(context.Background(), r, dir, FormatJSON, testNow)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mindharmony-report-2026-03-07.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestExportRejectsEmptyReport(t *testing.T) {
	_, err := Export(context.Background(), NewStore().Create("x"), t.TempDir(), FormatJSON, testNow)
	assert.Error(t, err)
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
