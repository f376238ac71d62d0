package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/report"
)

var takeNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func TestTakeQuestionnaireScripted(t *testing.T) {
	s := instrument.MustLookup(instrument.PHQ9)
	var out bytes.Buffer

	res, err := takeQuestionnaire(strings.NewReader("0 1 2 3 0 1 2 3 0"), &out, s, false, takeNow)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Score)
	assert.Equal(t, 27, res.MaxScore)
	assert.Equal(t, "中度抑郁", res.SeverityLabel)
	assert.Equal(t, []int{0, 1, 2, 3, 0, 1, 2, 3, 0}, res.Answers)
	assert.Empty(t, out.String())
}

func TestTakeQuestionnaireBackKeepsAnswers(t *testing.T) {
	s := instrument.MustLookup(instrument.GAD7)
	res, err := takeQuestionnaire(strings.NewReader("3 b 1 2 2 2 2 2 2"), &bytes.Buffer{}, s, false, takeNow)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2, 2, 2, 2, 2}, res.Answers)
	assert.Equal(t, 13, res.Score)
}

func TestTakeQuestionnaireErrors(t *testing.T) {
	s := instrument.MustLookup(instrument.GAD7)

	t.Run("short input", func(t *testing.T) {
		_, err := takeQuestionnaire(strings.NewReader("1 1"), &bytes.Buffer{}, s, false, takeNow)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "question 3 of 7")
	})

	t.Run("invalid value when scripted", func(t *testing.T) {
		_, err := takeQuestionnaire(strings.NewReader("1 7"), &bytes.Buffer{}, s, false, takeNow)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid answer "7"`)
	})

	t.Run("quit", func(t *testing.T) {
		_, err := takeQuestionnaire(strings.NewReader("1 q"), &bytes.Buffer{}, s, false, takeNow)
		assert.ErrorIs(t, err, errTakeQuit)
	})
}

func TestTakeQuestionnairePromptRetries(t *testing.T) {
	s := instrument.MustLookup(instrument.GAD7)
	var out bytes.Buffer

	res, err := takeQuestionnaire(strings.NewReader("x 0 0 9 0 0 0 0 0"), &out, s, true, takeNow)
	require.NoError(t, err)
	assert.Zero(t, res.Score)
	assert.Equal(t, "无明显焦虑", res.SeverityLabel)
	assert.Contains(t, out.String(), "[1/7]")
	assert.Contains(t, out.String(), "[7/7]")
	assert.Equal(t, 2, strings.Count(out.String(), "请输入 0-3 之间的数字。"))
}

func TestTakeRejectsExportFormatBeforeAnswering(t *testing.T) {
	require.NoError(t, takeCmd.Flags().Set("export", "pdf"))
	t.Cleanup(func() { _ = takeCmd.Flags().Set("export", "") })

	var out bytes.Buffer
	takeCmd.SetIn(strings.NewReader("0 0 0 0 0 0 0"))
	takeCmd.SetOut(&out)
	t.Cleanup(func() {
		takeCmd.SetIn(nil)
		takeCmd.SetOut(nil)
	})

	// No config or store is loaded here, so reaching them would fail.
	err := takeCmd.RunE(takeCmd, []string{"GAD-7"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown export format "pdf"`)
	assert.Empty(t, out.String())
}

func TestExportFlag(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("export", "", "")

	_, ok, err := exportFlag(cmd)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cmd.Flags().Set("export", "MD"))
	f, ok, err := exportFlag(cmd)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, report.FormatMarkdown, f)
}
