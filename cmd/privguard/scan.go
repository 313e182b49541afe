package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/eliteGoblin/privguard/internal/dispatch"
	"github.com/eliteGoblin/privguard/internal/domain"
)

var scanCmd = &cobra.Command{
	Use:   "scan [domain...]",
	Short: "Show the current state of every privacy setting",
	Long: `Scans the named domains (telemetry, permissions, firewall, cleanup,
packages), or the four scored domains when none is named. Scans run
concurrently; nothing is changed.`,
	RunE: runScan,
}

var applyCmd = &cobra.Command{
	Use:   "apply <domain> <block|allow> [item-id...]",
	Short: "Block or allow settings of one domain",
	Long: `Applies the desired state to the listed items of a domain, or to every
item when none is listed. Every item is attempted even when earlier items
fail; the summary lists at most the first five errors.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runApply,
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute privacy scores and record today's history entry",
	RunE:  runScore,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the score history",
	RunE:  runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every history entry",
	RunE:  runHistoryClear,
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show whether the overall score went up or down",
	RunE:  runTrend,
}

var historyDays int

func init() {
	historyCmd.Flags().IntVar(&historyDays, "days", 30, "Number of days to show")
	historyCmd.AddCommand(historyClearCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(trendCmd)
}

// signalContext is canceled on Ctrl+C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

type scanResult struct {
	Domain domain.Domain       `json:"domain"`
	Items  []domain.ConfigItem `json:"items"`
	Error  string              `json:"error,omitempty"`
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	names := args
	if len(names) == 0 {
		for _, d := range scoredDomains {
			names = append(names, string(d))
		}
	}

	type pending struct {
		d domain.Domain
		f *dispatch.Future[[]domain.ConfigItem]
	}
	var queued []pending
	for _, name := range names {
		ad, err := a.adapter(name)
		if err != nil {
			return err
		}
		f, err := dispatch.ScanAsync(a.coord, ad)
		if err != nil {
			return fmt.Errorf("queue scan of %s: %w", name, err)
		}
		queued = append(queued, pending{d: ad.Domain(), f: f})
	}

	var results []scanResult
	for _, p := range queued {
		items, err := p.f.Wait(ctx)
		r := scanResult{Domain: p.d, Items: items}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}

	if jsonOutput {
		return printJSON(results)
	}
	for _, r := range results {
		printScan(r)
	}
	return nil
}

func printScan(r scanResult) {
	fmt.Printf("\n=== %s ===\n", r.Domain)
	if r.Error != "" {
		fmt.Printf("Scan failed: %s\n", r.Error)
		return
	}
	blocked := 0
	category := ""
	for _, item := range r.Items {
		if item.Category != category {
			category = item.Category
			fmt.Printf("\n[%s]\n", category)
		}
		mark := " "
		if item.CurrentlyBlocked {
			mark = "x"
			blocked++
		}
		fmt.Printf("  [%s] %s\n", mark, item.DisplayName)
		fmt.Printf("      %s\n", item.ID)
		if item.ScanError != "" {
			fmt.Printf("      ! %s\n", item.ScanError)
		}
	}
	fmt.Printf("\n%d of %d blocked\n", blocked, len(r.Items))
}

func runApply(cmd *cobra.Command, args []string) error {
	desired, err := domain.ParseDesiredState(args[1])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ad, err := a.adapter(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	items, err := ad.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan %s: %w", ad.Domain(), err)
	}
	items, err = selectItems(items, args[2:])
	if err != nil {
		return err
	}

	if !jsonOutput {
		warnIfNotElevated()
		fmt.Printf("Applying %s to %d %s items...\n", desired, len(items), ad.Domain())
	}
	f, err := dispatch.ApplyAsync(a.coord, ad, items, desired)
	if err != nil {
		return err
	}
	result, err := waitApply(ctx, f)
	if err != nil {
		return err
	}
	return reportResult(result)
}

// selectItems keeps the items with the given IDs, or all when ids is empty.
func selectItems(items []domain.ConfigItem, ids []string) ([]domain.ConfigItem, error) {
	if len(ids) == 0 {
		return items, nil
	}
	byID := make(map[string]domain.ConfigItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	out := make([]domain.ConfigItem, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("no item %q", id)
		}
		out = append(out, item)
	}
	return out, nil
}

// waitApply prints progress until the apply completes.
func waitApply(ctx context.Context, f *dispatch.Future[domain.BulkResult]) (domain.BulkResult, error) {
	for p := range f.Progress() {
		if !jsonOutput {
			fmt.Printf("  [%d/%d] %s\n", p.Current, p.Total, p.Label)
		}
	}
	return f.Wait(ctx)
}

func reportResult(result domain.BulkResult) error {
	if jsonOutput {
		return printJSON(result)
	}
	fmt.Println(result.Summary(domain.MaxSummaryErrors))
	if !result.OK() {
		return fmt.Errorf("%d of %d items failed", result.FailureCount, len(result.Outcomes))
	}
	return nil
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	snap, refreshErr := a.dashboard.Refresh(ctx)
	if jsonOutput {
		return printJSON(snap)
	}

	fmt.Println("\n=== Privacy Score ===")
	fmt.Printf("Overall: %d/100 (%s)\n\n", snap.Overall, snap.Trend)
	for _, s := range snap.Scores() {
		fmt.Printf("  %-12s %3d  (%d of %d blocked)\n", s.Domain, s.Score, s.BlockedCount, s.TotalCount)
	}
	fmt.Printf("\nCleanable: %s\n", humanize.Bytes(uint64(snap.CleanableBytes)))
	if refreshErr != nil {
		fmt.Printf("\nSome domains could not be scanned:\n%v\n", refreshErr)
	}
	fmt.Println("=====================")
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	entries := a.history.History(historyDays)
	if jsonOutput {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No history yet. Run 'privguard score' to record today's entry.")
		return nil
	}
	fmt.Printf("%-10s  %7s  %9s  %11s  %8s\n", "DATE", "OVERALL", "TELEMETRY", "PERMISSIONS", "FIREWALL")
	for _, e := range entries {
		fmt.Printf("%-10s  %7d  %9d  %11d  %4d/%-3d\n",
			e.Date, e.OverallScore, e.TelemetryScore, e.PermissionsScore, e.FirewallBlocked, e.FirewallTotal)
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.history.Clear(); err != nil {
		return err
	}
	fmt.Println("Score history cleared")
	return nil
}

func runTrend(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	trend := a.history.Trend()
	latest, ok := a.history.Latest()
	if jsonOutput {
		return printJSON(map[string]any{"trend": trend, "latest": latest, "has_entries": ok})
	}
	if !ok {
		fmt.Println("Trend: stable (no history yet)")
		return nil
	}
	fmt.Printf("Trend: %s (latest %d on %s)\n", trend, latest.OverallScore, latest.Date)
	return nil
}
