package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/mindharmony/mindharmony/internal/advisory"
	"github.com/mindharmony/mindharmony/internal/assessment"
	"github.com/mindharmony/mindharmony/internal/filelock"
	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/scoring"
)

// DateLayout is the zh-CN short date used in the artifact's date field.
const DateLayout = "2006/1/2"

// FilePrefix starts every exported file name.
const FilePrefix = "mindharmony-report-"

// Format is an export rendition.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// Formats lists the supported renditions.
func Formats() []Format {
	return []Format{FormatJSON, FormatMarkdown, FormatHTML}
}

// ParseFormat accepts json, md/markdown and html.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, md or html)", s)
}

// Artifact is the exported document.
type Artifact struct {
	User      string              `json:"user"`
	Date      string              `json:"date"`
	Results   []assessment.Result `json:"results"`
	AISummary *advisory.Analysis  `json:"aiSummary"`
}

// Artifact snapshots the report for export at now.
func (r *Report) Artifact(now time.Time) Artifact {
	results := r.Results()
	for i := range results {
		if results[i].Answers == nil {
			results[i].Answers = []int{}
		}
	}
	return Artifact{
		User:      r.Owner,
		Date:      now.Format(DateLayout),
		Results:   results,
		AISummary: r.Analysis(),
	}
}

// FileName returns mindharmony-report-YYYY-MM-DD.<format>, dated in UTC.
func FileName(now time.Time, f Format) string {
	return FilePrefix + now.UTC().Format("2006-01-02") + "." + string(f)
}

// Render encodes the artifact in the given format.
func Render(a Artifact, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		return append(data, '\n'), nil
	case FormatMarkdown:
		return []byte(renderMarkdown(a)), nil
	case FormatHTML:
		return renderHTML(a)
	}
	return nil, fmt.Errorf("unknown export format %q", f)
}

// Export renders r and writes it into dir under a file lock. It returns the
// written path.
func Export(ctx context.Context, r *Report, dir string, f Format, now time.Time) (string, error) {
	if r == nil || r.Empty() {
		return "", fmt.Errorf("export: report has no results")
	}
	data, err := Render(r.Artifact(now), f)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(now, f))
	if err := filelock.WriteFile(ctx, path, data, 0o644); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return path, nil
}

func renderMarkdown(a Artifact) string {
	var b strings.Builder

	b.WriteString("# 心理健康筛查报告\n\n")
	fmt.Fprintf(&b, "- 用户：%s\n", a.User)
	fmt.Fprintf(&b, "- 日期：%s\n\n", a.Date)

	b.WriteString("## 测评结果\n\n")
	b.WriteString("| 量表 | 分数 | 程度 |\n|---|---|---|\n")
	for _, res := range a.Results {
		level := res.SeverityLabel
		if band, err := res.Band(); err == nil {
			level = band.Level
		}
		fmt.Fprintf(&b, "| %s | %d / %d | %s |\n", res.ScaleID, res.Score, res.MaxScore, level)
	}
	b.WriteString("\n")

	for _, res := range a.Results {
		s, err := instrument.Lookup(res.ScaleID)
		if err != nil {
			continue
		}
		band, err := scoring.Classify(s, res.Score)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", s.Title, band.Advice)
	}

	b.WriteString("## AI 心理健康助手分析\n\n")
	if a.AISummary == nil {
		b.WriteString("_暂无分析。_\n")
		return b.String()
	}
	if a.AISummary.IsCrisis {
		fmt.Fprintf(&b, "> **%s**\n>\n> %s\n\n", CrisisTitle, CrisisText)
	}
	fmt.Fprintf(&b, "### 综合分析\n\n%s\n\n", a.AISummary.Summary)
	b.WriteString("### 建议的自我关怀策略\n\n")
	for i, s := range a.AISummary.CopingStrategies {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	fmt.Fprintf(&b, "\n_%s_\n", AIDisclaimer)
	return b.String()
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

func renderHTML(a Artifact) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(renderMarkdown(a)), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html lang=\"zh-CN\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", html.EscapeString("心理健康筛查报告 "+a.Date))
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
