package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var registryOut string

// registryCmd groups the risk registry commands
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the ingredient risk registry",
	Long: `Inspect the ingredient risk registry used for safety scoring.

The built-in catalog is used unless registry.path (or --registry) points at
a YAML file in the layout written by 'foodlens registry export'.`,
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registry entries in match order",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, reg, err := setup()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSEVERITY\tCATEGORY\tALIASES")
		for _, e := range reg.Entries() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.CanonicalName, e.Severity, e.Category, strings.Join(e.Aliases, ", "))
		}
		return w.Flush()
	},
}

var registryShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one registry entry by canonical name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, reg, err := setup()
		if err != nil {
			return err
		}

		e, ok := reg.Lookup(args[0])
		if !ok {
			return fmt.Errorf("no registry entry named %q", args[0])
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", e.CanonicalName)
		fmt.Fprintf(out, "  Severity:    %s\n", e.Severity)
		fmt.Fprintf(out, "  Category:    %s\n", e.Category)
		if len(e.Aliases) > 0 {
			fmt.Fprintf(out, "  Aliases:     %s\n", strings.Join(e.Aliases, ", "))
		}
		if len(e.BannedRegions) > 0 {
			fmt.Fprintf(out, "  Banned in:   %s\n", strings.Join(e.BannedRegions, ", "))
		}
		if e.Description != "" {
			fmt.Fprintf(out, "  Description: %s\n", e.Description)
		}
		for _, warning := range e.Warnings {
			fmt.Fprintf(out, "  Warning:     %s\n", warning)
		}
		return nil
	},
}

var registryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the registry as YAML",
	Long: `Export writes the active registry as YAML. Edit the file and point
registry.path at it to replace the built-in catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, reg, err := setup()
		if err != nil {
			return err
		}

		data, err := reg.Marshal()
		if err != nil {
			return fmt.Errorf("marshal registry: %w", err)
		}

		if registryOut == "" || registryOut == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(registryOut, data, 0644); err != nil {
			return fmt.Errorf("write registry: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %d entries to %s\n", reg.Len(), registryOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registryListCmd)
	registryCmd.AddCommand(registryShowCmd)
	registryCmd.AddCommand(registryExportCmd)

	registryExportCmd.Flags().StringVarP(&registryOut, "output", "o", "", "output file (default: stdout)")
}
