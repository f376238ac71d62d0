package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mindharmony/mindharmony/internal/assessment"
	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/profile"
	"github.com/mindharmony/mindharmony/internal/report"
)

var errTakeQuit = errors.New("questionnaire cancelled")

var takeCmd = &cobra.Command{
	Use:   "take <PHQ-9|GAD-7>",
	Short: "Answer a questionnaire on the command line",
	Long: "Answer a questionnaire line by line. Enter 0-3 for each question, b to go back, q to quit.\n" +
		"When stdin is not a terminal, answers are read as whitespace separated values without prompts.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := instrument.ParseScaleID(args[0])
		if err != nil {
			return err
		}
		schema, err := instrument.Lookup(id)
		if err != nil {
			return err
		}
		withAdvice, _ := cmd.Flags().GetBool("advice")
		format, export, err := exportFlag(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		owner := "匿名用户"
		if p, err := profile.NewService(st.ProfileRepo()).Load(ctx); err != nil {
			return err
		} else if p != nil {
			owner = p.Nickname
		}

		out := cmd.OutOrStdout()
		interactive := isTerminal(os.Stdin)
		if interactive {
			dimColor.Fprintln(out, instrument.Disclaimer)
			fmt.Fprintln(out)
		}

		res, err := takeQuestionnaire(cmd.InOrStdin(), out, schema, interactive, time.Now())
		if errors.Is(err, errTakeQuit) {
			fmt.Fprintln(out, "已退出，本次作答未保存。")
			return nil
		}
		if err != nil {
			return err
		}

		reports := report.NewStore()
		reports.Create(owner)
		rep := reports.Append(*res)
		if err := report.SaveResult(ctx, st.ResultRepo(), rep.CycleID, *res); err != nil {
			return err
		}

		fmt.Fprintln(out)
		headingColor.Fprintln(out, schema.Title)
		printRows(out, rep.Rows(), true)

		if withAdvice {
			client, _ := newAdvisoryClient(ctx, cfg, st.EventRepo())
			advisor := newAdvisor(cfg, client, reports)
			awaitAdvisory(ctx, advisor, rep)
			advisor.Close()
			printAdvisory(out, rep)
		}

		if export {
			path, err := report.Export(ctx, rep, cfg.ExportDir, format, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n报告已导出：%s\n", path)
		}
		return nil
	},
}

func init() {
	takeCmd.Flags().Bool("advice", false, "Request an AI analysis of the result")
	takeCmd.Flags().String("export", "", "Export the report as json, md or html")
	takeCmd.Flags().String("dir", "", "Directory for the exported report")
}

// exportFlag parses --export. The second result is false when the flag is
// unset.
func exportFlag(cmd *cobra.Command) (report.Format, bool, error) {
	v, _ := cmd.Flags().GetString("export")
	if v == "" {
		return "", false, nil
	}
	f, err := report.ParseFormat(v)
	if err != nil {
		return "", false, err
	}
	return f, true, nil
}

// takeQuestionnaire runs one session over in. Tokens are answer values, "b"
// to go back or "q" to quit. With prompt unset, any invalid token is an
// error instead of a retry.
func takeQuestionnaire(in io.Reader, out io.Writer, s *instrument.Schema, prompt bool, now time.Time) (*assessment.Result, error) {
	sess := assessment.New(s)
	sc := bufio.NewScanner(in)
	sc.Split(bufio.ScanWords)

	for {
		if prompt {
			printQuestion(out, sess)
		}
		if !sc.Scan() {
			err := fmt.Errorf("input ended at question %d of %d", sess.Current()+1, sess.Len())
			if scanErr := sc.Err(); scanErr != nil {
				err = fmt.Errorf("read answer: %w", scanErr)
			}
			_ = sess.Cancel()
			return nil, err
		}

		tok := strings.ToLower(sc.Text())
		switch tok {
		case "q", "quit":
			_ = sess.Cancel()
			return nil, errTakeQuit
		case "b", "back":
			_ = sess.NavigateBack()
			continue
		}

		v, err := strconv.Atoi(tok)
		if err == nil {
			wasLast := sess.IsLast()
			err = sess.SelectAnswer(v)
			if err == nil && !wasLast {
				continue
			}
		}
		if err != nil {
			if !prompt {
				return nil, fmt.Errorf("question %d: invalid answer %q", sess.Current()+1, tok)
			}
			warnColor.Fprintf(out, "请输入 0-%d 之间的数字。\n", instrument.MaxOptionValue)
			continue
		}

		res, err := sess.Submit(now)
		if sess.Recover(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}

func printQuestion(w io.Writer, sess *assessment.Session) {
	q := sess.Question()
	fmt.Fprintln(w)
	dimColor.Fprintf(w, "[%d/%d] ", sess.Current()+1, sess.Len())
	fmt.Fprintln(w, q.Text)
	current := sess.Answer(sess.Current())
	for _, o := range q.Options {
		mark := " "
		if o.Value == current {
			mark = "✓"
		}
		fmt.Fprintf(w, "  %s %d) %s\n", mark, o.Value, o.Label)
	}
	fmt.Fprint(w, "> ")
}

// awaitAdvisory requests the analysis of r and blocks until it settles.
func awaitAdvisory(ctx context.Context, a *report.Advisor, r *report.Report) {
	done := make(chan struct{})
	if !a.RequestAdvisory(ctx, r, func(report.Outcome) { close(done) }) {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}
