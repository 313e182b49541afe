package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/adapter"
	"github.com/eliteGoblin/privguard/internal/domain"
	"github.com/eliteGoblin/privguard/internal/infra"
	"github.com/eliteGoblin/privguard/internal/netmon"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart <status|enable|disable>",
	Short: "Launch privguard at logon",
	Args:  cobra.ExactArgs(1),
	RunE:  runAutostart,
}

var updatesCmd = &cobra.Command{
	Use:   "updates <status|disable|notify|restore>",
	Short: "Manage the Windows Update policy",
	Long: `Reads or writes the Windows Update group policy under HKLM.
disable turns automatic updates off, notify keeps them on but asks
before downloading, and restore deletes both policy values.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdates,
}

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "List live connections, flagging telemetry hosts",
	Long: `Lists established and connecting sockets with their owning process.
Remote hostnames are resolved in the background, so the first sample may
show addresses only. Use --watch to keep sampling until Ctrl+C.`,
	RunE: runConnections,
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Refresh scores and print counters in Prometheus text format",
	RunE:  runMetrics,
}

var (
	watchConnections bool
	suspectsOnly     bool
)

func init() {
	connectionsCmd.Flags().BoolVar(&watchConnections, "watch", false, "Keep sampling until interrupted")
	connectionsCmd.Flags().BoolVar(&suspectsOnly, "suspects", false, "Only show telemetry connections")

	rootCmd.AddCommand(autostartCmd)
	rootCmd.AddCommand(updatesCmd)
	rootCmd.AddCommand(connectionsCmd)
	rootCmd.AddCommand(metricsCmd)
}

func runAutostart(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	switch args[0] {
	case "status":
		enabled, err := a.autostart.IsEnabled()
		if err != nil {
			return err
		}
		exe, _ := infra.ExecutablePath()
		stale := enabled && exe != "" && a.autostart.NeedsUpdate(exe)
		if jsonOutput {
			return printJSON(map[string]bool{"enabled": enabled, "stale": stale})
		}
		fmt.Printf("Autostart: %v\n", enabled)
		if stale {
			fmt.Println("The registered path differs from this executable; run 'privguard autostart enable' to update it.")
		}
	case "enable":
		exe, err := infra.ExecutablePath()
		if err != nil {
			return err
		}
		if err := a.autostart.Enable(exe); err != nil {
			return err
		}
		fmt.Println("Autostart enabled")
	case "disable":
		if err := a.autostart.Disable(); err != nil {
			return err
		}
		fmt.Println("Autostart disabled")
	default:
		return fmt.Errorf("unknown autostart action %q (status, enable or disable)", args[0])
	}
	return nil
}

func runUpdates(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	switch args[0] {
	case "status":
		st, err := a.updates.Status()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(st)
		}
		fmt.Printf("Windows Update: %s\n", adapter.DescribeUpdatePolicy(st))
		return nil
	case "disable":
		warnIfNotElevated()
		err = a.updates.DisableAutoUpdates()
	case "notify":
		warnIfNotElevated()
		err = a.updates.SetNotifyOnly()
	case "restore":
		warnIfNotElevated()
		err = a.updates.RestoreDefaults()
	default:
		return fmt.Errorf("unknown updates action %q (status, disable, notify or restore)", args[0])
	}
	if err != nil {
		return err
	}

	st, err := a.updates.Status()
	if err != nil {
		return err
	}
	fmt.Printf("Windows Update: %s\n", adapter.DescribeUpdatePolicy(st))
	return nil
}

func runConnections(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	classifier, cache := a.classifier()
	defer cache.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if !watchConnections {
		conns, err := classifier.Scan(ctx)
		if err != nil {
			return err
		}
		printConnections(filterSuspects(conns))
		return nil
	}

	monitor := netmon.NewMonitor(classifier, a.cfg.Network.SampleInterval.Duration(), a.logger)
	err = monitor.Run(ctx, func(s netmon.Snapshot) {
		if s.Err != nil {
			fmt.Printf("sample failed: %v\n", s.Err)
			return
		}
		if !jsonOutput {
			fmt.Printf("\n--- %s: %d connections, %d suspect ---\n",
				s.TakenAt.Format("15:04:05"), len(s.Connections), s.Suspects)
		}
		printConnections(filterSuspects(s.Connections))
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func filterSuspects(conns []domain.NetworkConnection) []domain.NetworkConnection {
	if !suspectsOnly {
		return conns
	}
	var out []domain.NetworkConnection
	for _, c := range conns {
		if c.IsSuspect {
			out = append(out, c)
		}
	}
	return out
}

func printConnections(conns []domain.NetworkConnection) {
	if jsonOutput {
		_ = printJSON(conns)
		return
	}
	for _, c := range conns {
		mark := " "
		if c.IsSuspect {
			mark = "!"
		}
		host := c.Hostname
		if host == "" {
			host = c.RemoteIP
		}
		fmt.Printf("%s %-24s %6d  %-22s -> %-22s %-12s %s\n",
			mark, c.ProcessName, c.PID, c.LocalAddress, c.RemoteAddress, c.ConnState, host)
	}
}

func runMetrics(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	snap, refreshErr := a.dashboard.Refresh(ctx)
	if refreshErr != nil {
		a.logger.Warn("refresh incomplete", zap.Error(refreshErr))
	}
	for _, s := range snap.Scores() {
		score := s.Score
		metrics.GetOrCreateGauge(fmt.Sprintf(`privguard_score{domain=%q}`, s.Domain), func() float64 {
			return float64(score)
		})
	}
	overall := snap.Overall
	metrics.GetOrCreateGauge("privguard_score_overall", func() float64 { return float64(overall) })
	cleanable := snap.CleanableBytes
	metrics.GetOrCreateGauge("privguard_cleanable_bytes", func() float64 { return float64(cleanable) })

	metrics.WritePrometheus(os.Stdout, false)
	return nil
}
