package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/privguard/internal/domain"
	"github.com/eliteGoblin/privguard/internal/usecase"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Export, import and keep named settings profiles",
	Long: `A profile records which telemetry, permission and firewall items are
blocked plus the autostart setting. Importing blocks the listed items and
leaves everything else untouched.

Named profiles are kept in an encrypted store in the data directory.`,
}

var profileExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the current settings to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileExport,
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Apply the settings of a JSON profile file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileImport,
}

var profileSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Store the current settings under a name",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSave,
}

var profileLoadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Apply a stored profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileLoad,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	RunE:  runProfileList,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

func init() {
	profileCmd.AddCommand(
		profileExportCmd,
		profileImportCmd,
		profileSaveCmd,
		profileLoadCmd,
		profileListCmd,
		profileDeleteCmd,
	)
	rootCmd.AddCommand(profileCmd)
}

func runProfileExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	m, store, err := a.profiles()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	p, err := m.Capture(ctx)
	if err != nil {
		return fmt.Errorf("capture settings: %w", err)
	}
	data, err := usecase.EncodeProfile(p)
	if err != nil {
		return err
	}
	if err := a.fs.WriteFileAtomic(args[0], data); err != nil {
		return err
	}
	fmt.Printf("Profile exported to %s\n", args[0])
	return nil
}

func runProfileImport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	data, err := a.fs.ReadFile(args[0])
	if err != nil {
		return err
	}
	p, err := usecase.DecodeProfile(data)
	if err != nil {
		return err
	}
	return applyProfile(a, p)
}

func applyProfile(a *app, p *domain.Profile) error {
	m, store, err := a.profiles()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if !jsonOutput {
		warnIfNotElevated()
	}
	result, applyErr := m.Apply(ctx, p, printProgress())
	reportErr := reportResult(result)
	if applyErr != nil {
		return applyErr
	}
	return reportErr
}

func runProfileSave(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	m, store, err := a.profiles()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if _, err := m.Save(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Profile %q saved\n", args[0])
	return nil
}

func runProfileLoad(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	m, store, err := a.profiles()
	if err != nil {
		return err
	}
	p, err := m.Load(args[0])
	store.Close()
	if err != nil {
		return err
	}
	return applyProfile(a, p)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	m, store, err := a.profiles()
	if err != nil {
		return err
	}
	defer store.Close()

	profiles, err := m.List()
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(profiles)
	}
	if len(profiles) == 0 {
		fmt.Println("No saved profiles")
		return nil
	}
	for _, p := range profiles {
		fmt.Printf("  %-24s %s\n", p.Name, p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	m, store, err := a.profiles()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := m.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Profile %q deleted\n", args[0])
	return nil
}
