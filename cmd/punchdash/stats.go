package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/punchdash/internal/cli"
	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/session"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show, export or delete the accuracy statistics",
	}

	cmd.AddCommand(statsShowCmd())
	cmd.AddCommand(statsExportCmd())
	cmd.AddCommand(statsDeleteCmd())
	cmd.AddCommand(statsHistoryCmd())

	return cmd
}

func statsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, stale, err := loadStatistics(cmd.Context())
			if err != nil {
				return err
			}
			if stale {
				_, _ = fmt.Fprintln(os.Stdout, cli.FormatWarning("backend unreachable, showing cached statistics"))
			}
			return writeStatistics(os.Stdout, stats)
		},
	}
}

func statsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the statistics as JSON or YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			if err := checkExportFormat(format); err != nil {
				return err
			}

			stats, _, err := loadStatistics(cmd.Context())
			if err != nil {
				return err
			}

			if output == "" {
				return exportStatistics(os.Stdout, stats, format)
			}
			if err := exportToFile(output, stats, format); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, cli.FormatInfo("statistics written to "+output))
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "json", "export format (json, yaml)")
	cmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")

	return cmd
}

func statsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Reset the statistics on the backend",
		Long: `Reset every counter on the backend and clear the local cache.

This cannot be undone. The local verdict history is kept.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")
			if !force && !confirm(os.Stdin, os.Stdout, "This will reset all statistics on the backend.") {
				_, _ = fmt.Fprintln(os.Stdout, "Cancelled.")
				return nil
			}

			ctx := cmd.Context()
			env, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			sess := session.New(env.client, env.store, env.store)
			ok, err := sess.DeleteStatistics(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return common.NewUserError("the backend refused to delete the statistics; check the username and password", nil)
			}

			_, _ = fmt.Fprintln(os.Stdout, cli.FormatSuccess("statistics deleted"))
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "skip confirmation prompt")

	return cmd
}

func statsHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the verdicts submitted from this machine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			ctx := cmd.Context()
			env, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			verdicts, err := env.store.GetVerdicts(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to load verdicts: %w", err)
			}
			return writeHistory(os.Stdout, verdicts)
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "number of verdicts to show (0 for all)")

	return cmd
}

// loadStatistics fetches the statistics, retrying transient failures and
// falling back to the local cache.
func loadStatistics(ctx context.Context) (*model.Statistics, bool, error) {
	env, cleanup, err := setup(ctx)
	if err != nil {
		return nil, false, err
	}
	defer cleanup()

	var fetched *model.Statistics
	fetchErr := withRetry(ctx, func(ctx context.Context) error {
		var err error
		fetched, err = env.client.FetchStatistics(ctx)
		return err
	})

	sess := session.New(env.client, env.store, env.store)
	stats, err := sess.ApplyFetched(ctx, fetched, fetchErr)
	if err != nil {
		return nil, false, common.NewUserError("could not load statistics from "+env.client.Address(), err)
	}
	return stats, sess.Stale(), nil
}

func writeStatistics(w io.Writer, stats *model.Statistics) error {
	var b strings.Builder

	b.WriteString(cli.FormatTitle(cli.PunchIcon+" Recognition statistics") + "\n")
	fmt.Fprintf(&b, "Relative accuracy: %.0f%% (%d correct, %d wrong)\n\n",
		stats.RelativeAccuracy, stats.AbsolutePositiveAccuracy, stats.AbsoluteNegativeAccuracy)

	b.WriteString(cli.FormatTitle("Hand") + "\n")
	shares := make([]string, 0, model.NumHands)
	for _, h := range model.AllHands() {
		wins, fails := stats.AbsoluteHandOnlyWinsSums[h], stats.AbsoluteHandOnlyFailsSums[h]
		writeCard(&b, h.String(), wins, fails)
		shares = append(shares, fmt.Sprintf("%s %.0f%%", h, model.Percent(wins+fails, stats.AbsolutePositiveAccuracy, stats.AbsoluteNegativeAccuracy)))
	}
	b.WriteString("  " + cli.FormatSubtle("share: "+strings.Join(shares, ", ")) + "\n")

	b.WriteString("\n" + cli.FormatTitle("Punch type") + "\n")
	for _, l := range model.AllLabels() {
		writeCard(&b, l.String(), stats.AbsolutePunchTypeOnlyWinsSums[l], stats.AbsolutePunchTypeOnlyFailsSums[l])
	}

	b.WriteString("\n" + cli.FormatTitle("Punch type × hand") + " " + cli.FormatSubtle("(wins/fails)") + "\n")
	fmt.Fprintf(&b, "  %-14s", "")
	for _, h := range model.AllHands() {
		fmt.Fprintf(&b, " %8s", h.String())
	}
	b.WriteString("\n")
	for _, l := range model.AllLabels() {
		fmt.Fprintf(&b, "  %-14s", l.String())
		for _, h := range model.AllHands() {
			cell := stats.AbsoluteFailWinSums[l].Hands[h]
			fmt.Fprintf(&b, " %8s", fmt.Sprintf("%d/%d", cell[model.SlotWin], cell[model.SlotFail]))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + cli.FormatTitle("Distribution") + " " + cli.FormatSubtle("(share of rated events)") + "\n")
	totals := stats.LabelTotals()
	for _, l := range model.AllLabels() {
		fmt.Fprintf(&b, "  %-14s %4d (%3.0f%%)\n", l.String(), totals[l],
			model.Percent(totals[l], stats.AbsolutePositiveAccuracy, stats.AbsoluteNegativeAccuracy))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeCard(b *strings.Builder, name string, wins, fails int) {
	winPct, failPct := model.WinFailPercent(wins, fails)
	fmt.Fprintf(b, "  %-14s wins %4d (%3.0f%%)  fails %4d (%3.0f%%)\n", name, wins, winPct, fails, failPct)
}

func checkExportFormat(format string) error {
	switch format {
	case "json", "yaml":
		return nil
	default:
		return common.NewUserError(fmt.Sprintf("unknown export format %q (use json or yaml)", format), common.ErrInvalidConfig)
	}
}

// exportToFile writes the export to path. The file is removed again if the
// export fails, so a failed run never leaves a truncated file behind.
func exportToFile(path string, stats *model.Statistics, format string) (err error) {
	if err := checkExportFormat(format); err != nil {
		return err
	}

	f, err := os.Create(path) // #nosec G304 -- user supplied output path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return exportStatistics(f, stats, format)
}

func exportStatistics(w io.Writer, stats *model.Statistics, format string) error {
	if err := checkExportFormat(format); err != nil {
		return err
	}

	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(stats); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func writeHistory(w io.Writer, verdicts []model.Verdict) error {
	if len(verdicts) == 0 {
		_, err := fmt.Fprintln(w, "No verdicts recorded yet.")
		return err
	}

	var b strings.Builder
	for _, v := range verdicts {
		mark := cli.SuccessIcon
		truth := ""
		if !v.IsCorrect() {
			mark = cli.ErrorIcon
			label, hand := v.Truth()
			truth = fmt.Sprintf(" → %s %s", label, hand)
		}
		fmt.Fprintf(&b, "%s %s %-13s %-5s%s\n",
			v.RatedAt.Local().Format("2006-01-02 15:04:05"), mark, v.Label, v.Hand, truth)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// confirm asks a yes/no question, defaulting to no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	_, _ = fmt.Fprintf(out, "%s\nAre you sure you want to continue? [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
