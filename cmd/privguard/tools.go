package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/dispatch"
	"github.com/eliteGoblin/privguard/internal/domain"
)

var firewallCmd = &cobra.Command{
	Use:   "firewall",
	Short: "Manage outbound block rules for telemetry hosts",
}

var firewallStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which endpoints have an active block rule",
	RunE:  runFirewallStatus,
}

var firewallBlockCmd = &cobra.Command{
	Use:   "block [category]",
	Short: "Add block rules for every endpoint, or one category",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFirewallToggle(domain.Blocked),
}

var firewallUnblockCmd = &cobra.Command{
	Use:   "unblock [category]",
	Short: "Remove block rules for every endpoint, or one category",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFirewallToggle(domain.Allowed),
}

var firewallExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the full firewall policy",
	Args:  cobra.ExactArgs(1),
	RunE:  runFirewallExport,
}

var hostsCmd = &cobra.Command{
	Use:   "hosts <apply|remove|status>",
	Short: "Manage the sink block for telemetry hosts in the hosts file",
	Args:  cobra.ExactArgs(1),
	RunE:  runHosts,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clear tracking artifacts",
	Long: `Clears temp files, caches, recent-file and MRU lists, resets the
advertising ID and clears the activity history. Use --list to only show
what would be cleaned.`,
	RunE: runClean,
}

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List installed app packages",
	RunE:  runPackages,
}

var packagesRemoveCmd = &cobra.Command{
	Use:   "remove <package-full-name...>",
	Short: "Uninstall packages (critical system packages are refused)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPackagesRemove,
}

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Show app permission status",
	RunE:  runPermissions,
}

var permissionsSetCmd = &cobra.Command{
	Use:   "set <capability> <allow|deny>",
	Short: "Set a capability globally, or for one app with --app",
	Args:  cobra.ExactArgs(2),
	RunE:  runPermissionsSet,
}

var permissionsDisableAllCmd = &cobra.Command{
	Use:   "disable-all",
	Short: "Deny every main capability globally",
	RunE:  runPermissionsDisableAll,
}

var (
	cleanList      bool
	cleanCategory  string
	bloatwareOnly  bool
	permissionsApp string
)

func init() {
	firewallCmd.AddCommand(firewallStatusCmd, firewallBlockCmd, firewallUnblockCmd, firewallExportCmd)

	cleanCmd.Flags().BoolVar(&cleanList, "list", false, "Only list targets and their sizes")
	cleanCmd.Flags().StringVar(&cleanCategory, "category", "", "Only clean one category")

	packagesCmd.Flags().BoolVar(&bloatwareOnly, "bloatware", false, "Only list bloatware")
	packagesCmd.AddCommand(packagesRemoveCmd)

	permissionsSetCmd.Flags().StringVar(&permissionsApp, "app", "", "Package family name of one app")
	permissionsCmd.AddCommand(permissionsSetCmd, permissionsDisableAllCmd)

	rootCmd.AddCommand(firewallCmd)
	rootCmd.AddCommand(hostsCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(packagesCmd)
	rootCmd.AddCommand(permissionsCmd)
}

func runFirewallStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	statuses := a.firewall.Status(ctx)
	if jsonOutput {
		return printJSON(statuses)
	}

	active := 0
	category := ""
	for _, s := range statuses {
		if s.Endpoint.Category != category {
			category = s.Endpoint.Category
			fmt.Printf("\n[%s]\n", category)
		}
		mark := " "
		if s.Active {
			mark = "x"
			active++
		}
		fmt.Printf("  [%s] %-45s %s\n", mark, s.Endpoint.Domain, s.RuleName)
		if s.Err != "" {
			fmt.Printf("      ! %s\n", s.Err)
		}
	}
	fmt.Printf("\n%d of %d endpoints blocked\n", active, len(statuses))
	if !a.firewall.HasAdminRights(ctx) {
		fmt.Println("Note: firewall changes need an elevated prompt.")
	}
	return nil
}

func runFirewallToggle(desired domain.DesiredState) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := signalContext()
		defer cancel()

		endpoints := a.firewall.Endpoints()
		if len(args) == 1 {
			endpoints = catalog.EndpointsInCategory(endpoints, args[0])
			if len(endpoints) == 0 {
				return fmt.Errorf("unknown category %q (one of %v)", args[0], a.firewall.Categories())
			}
		}
		items := make([]domain.ConfigItem, 0, len(endpoints))
		for _, ep := range endpoints {
			items = append(items, domain.ConfigItem{ID: ep.Domain, DisplayName: ep.Domain, Category: ep.Category})
		}

		if !jsonOutput {
			warnIfNotElevated()
		}
		f, err := dispatch.ApplyAsync(a.coord, a.firewall, items, desired)
		if err != nil {
			return err
		}
		result, err := waitApply(ctx, f)
		if err != nil {
			return err
		}
		return reportResult(result)
	}
}

func runFirewallExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := a.firewall.ExportRules(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Firewall policy exported to %s\n", args[0])
	return nil
}

func runHosts(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	switch args[0] {
	case "apply":
		warnIfNotElevated()
		if err := a.hosts.Apply(a.firewall.Endpoints()); err != nil {
			return err
		}
		fmt.Printf("Hosts block written to %s (%d entries)\n", a.hosts.Path(), len(a.firewall.Endpoints()))
	case "remove":
		warnIfNotElevated()
		if err := a.hosts.Remove(); err != nil {
			return err
		}
		fmt.Printf("Hosts block removed from %s\n", a.hosts.Path())
	case "status":
		applied, err := a.hosts.IsApplied()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]any{"path": a.hosts.Path(), "applied": applied})
		}
		fmt.Printf("%s: block applied = %v\n", a.hosts.Path(), applied)
	default:
		return fmt.Errorf("unknown hosts action %q (apply, remove or status)", args[0])
	}
	return nil
}

func runClean(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	if cleanList {
		targets := a.cleanup.Targets(ctx)
		if jsonOutput {
			return printJSON(targets)
		}
		var total int64
		for _, t := range targets {
			state := "empty"
			if t.CanClean {
				state = humanize.Bytes(uint64(t.SizeBytes))
			}
			fmt.Printf("  %-28s %-18s %s\n", t.Name, t.Category, state)
			total += t.SizeBytes
		}
		fmt.Printf("\nTotal: %s\n", humanize.Bytes(uint64(total)))
		return nil
	}

	progress := printProgress()
	var report domain.CleanupReport
	if cleanCategory != "" {
		report = a.cleanup.CleanCategory(ctx, cleanCategory, progress)
	} else {
		report = a.cleanup.CleanAll(ctx, progress)
	}

	if jsonOutput {
		return printJSON(report)
	}
	fmt.Println(report.Message)
	return nil
}

// printProgress returns a progress callback for synchronous bulk calls.
func printProgress() domain.ProgressFunc {
	if jsonOutput {
		return nil
	}
	return func(current, total int, label string) {
		fmt.Printf("  [%d/%d] %s\n", current, total, label)
	}
}

func runPackages(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	var pkgs []domain.InstalledPackage
	if bloatwareOnly {
		pkgs, err = a.packages.Bloatware(ctx)
	} else {
		pkgs, err = a.packages.List(ctx)
	}
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(pkgs)
	}
	for _, p := range pkgs {
		tag := ""
		switch {
		case p.IsCritical:
			tag = " (system)"
		case p.IsBloatware:
			tag = " (bloatware)"
		}
		fmt.Printf("  %s%s\n      %s\n", p.Name, tag, p.FullName)
	}
	fmt.Printf("\n%d packages\n", len(pkgs))
	return nil
}

func runPackagesRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	items := make([]domain.ConfigItem, 0, len(args))
	for _, name := range args {
		items = append(items, domain.ConfigItem{ID: name, DisplayName: name})
	}
	f, err := dispatch.ApplyAsync(a.coord, a.packages, items, domain.Blocked)
	if err != nil {
		return err
	}
	result, err := waitApply(ctx, f)
	if err != nil {
		return err
	}
	return reportResult(result)
}

func runPermissions(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	var statuses []*domain.PermissionStatus
	for _, c := range catalog.MainCapabilities {
		s, err := a.permissions.Status(c)
		if err != nil {
			fmt.Printf("  %s: %v\n", c, err)
			continue
		}
		statuses = append(statuses, s)
	}
	if jsonOutput {
		return printJSON(statuses)
	}

	for _, s := range statuses {
		state := "denied"
		if s.Enabled {
			state = "allowed"
		}
		fmt.Printf("\n%s (%s): %s\n", s.DisplayName, s.Capability, state)
		for _, app := range s.Apps {
			appState := "deny"
			if app.Allowed {
				appState = "allow"
			}
			fmt.Printf("    %-30s %s\n", app.AppName, appState)
		}
	}
	return nil
}

func runPermissionsSet(cmd *cobra.Command, args []string) error {
	var allowed bool
	switch args[1] {
	case "allow":
		allowed = true
	case "deny":
	default:
		return fmt.Errorf("unknown value %q (allow or deny)", args[1])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	c := domain.Capability(args[0])
	if permissionsApp != "" {
		err = a.permissions.SetApp(c, permissionsApp, allowed)
	} else {
		err = a.permissions.SetGlobal(c, allowed)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s set to %s\n", c, args[1])
	return nil
}

func runPermissionsDisableAll(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	warnIfNotElevated()
	result := a.permissions.DisableAll(ctx, printProgress())
	return reportResult(result)
}
