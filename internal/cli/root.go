// Package cli implements segctl, a terminal front end for the analysis
// workflow. Each command opens the page of one tab, drives the workflow
// controller and prints what the page would show.
package cli

import (
	"github.com/spf13/cobra"
)

// DefaultTab is the tab used when --tab is not given.
const DefaultTab = "segctl"

// NewRootCmd creates the segctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "segctl",
		Short: "Drive a customer segmentation analysis from the terminal",
		Long: `segctl runs the customer segmentation workflow against a clustering backend:
upload a dataset, find the optimal number of clusters, cluster, and show
the results. Results are cached per tab; with --redis they survive between
invocations and "segctl results" reloads them without re-clustering.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "Backend base URL (default $BACKEND_BASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.redis, "redis", "", "Redis URL for the session cache (default $REDIS_URL, in-memory when empty)")
	cmd.PersistentFlags().StringVar(&opts.tabID, "tab", DefaultTab, "Tab whose session cache is used")
	cmd.PersistentFlags().StringVar(&opts.theme, "theme", "", "Theme for rendering (default $DEFAULT_THEME)")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newResultsCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newResetCmd(opts))
	cmd.AddCommand(newSaveCmd(opts))
	cmd.AddCommand(newRestoreCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newThemesCmd(opts))

	return cmd
}
