package cli

import (
	"bufio"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/segmentlens/internal/ui"
	"github.com/kiranshivaraju/segmentlens/internal/viz"
)

func newResultsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "Show the results of the last clustering run",
		Long: `Load the results view as the browser does on a hard reload: live data
from the backend first, the tab's session cache for anything missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			view := s.page.Reconciler.Load(cmd.Context())
			s.flush()
			fmt.Fprint(s.out, s.render.View(view))
			return nil
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the clustered dataset on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()
			defer s.flush()

			if _, err := s.page.Controller.Attach(cmd.Context()); err != nil {
				return err
			}
			res, err := s.page.Controller.Export(cmd.Context())
			if err != nil {
				return err
			}
			s.flush()

			kinds := make([]string, 0, len(res.Files))
			for kind := range res.Files {
				kinds = append(kinds, kind)
			}
			slices.Sort(kinds)
			for _, kind := range kinds {
				fmt.Fprintf(s.out, "  %s: %s\n", kind, res.Files[kind])
			}
			return nil
		},
	}
}

func newResetCmd(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the current analysis on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()
			defer s.flush()

			confirm := ui.Always(true)
			if !yes {
				confirm = promptConfirmer(cmd)
			}
			return s.page.Controller.Reset(cmd.Context(), confirm)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// promptConfirmer asks on the command's output and reads y/N from its input.
func promptConfirmer(cmd *cobra.Command) ui.Confirmer {
	return ui.ConfirmFunc(func(prompt string) bool {
		fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
		line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	})
}

func newSaveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the current analysis on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()
			defer s.flush()

			if _, err := s.page.Controller.Attach(cmd.Context()); err != nil {
				return err
			}
			return s.page.Controller.Save(cmd.Context())
		},
	}
}

func newRestoreCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore the last saved analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()
			defer s.flush()

			res, err := s.page.Controller.Restore(cmd.Context())
			if err != nil {
				return err
			}
			s.flush()
			if len(res.Features) > 0 {
				fmt.Fprintf(s.out, "  features: %s\n", strings.Join(res.Features, ", "))
			}
			if len(res.Shape) == 2 {
				fmt.Fprintf(s.out, "  rows: %d\n", res.Shape[0])
			}
			return nil
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List saved analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			fmt.Fprint(s.out, s.render.History(s.page.Controller.History(cmd.Context())))
			return nil
		},
	}
}

func newThemesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the available themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			current := viz.DefaultTheme
			if opts.theme != "" {
				name, err := viz.ParseThemeName(opts.theme)
				if err != nil {
					return err
				}
				current = name
			}
			r := NewRenderer(cmd.OutOrStdout(), viz.MustTheme(current))
			fmt.Fprint(cmd.OutOrStdout(), r.Themes(viz.ThemeNames(), current))
			return nil
		},
	}
}
