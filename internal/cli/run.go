package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newRunCmd creates the run command.
func newRunCmd(opts *options) *cobra.Command {
	var sample bool
	var k int

	cmd := &cobra.Command{
		Use:   "run [file.csv]",
		Short: "Load a dataset, cluster it and show the results",
		Long: `Upload a CSV dataset (or load the sample dataset with --sample), cluster
it and print the results view. Without --k the optimal number of clusters
found by the backend is used.`,
		Example: `  segctl run customers.csv
  segctl run --sample --k 4
  segctl run customers.csv --theme dark`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runAnalysis(cmd, opts, file, sample, k)
		},
	}

	cmd.Flags().BoolVar(&sample, "sample", false, "Use the backend's sample dataset")
	cmd.Flags().IntVarP(&k, "k", "k", 0, "Number of clusters (default: optimal)")

	return cmd
}

func runAnalysis(cmd *cobra.Command, opts *options, file string, sample bool, k int) error {
	if !sample && file == "" {
		return errors.New("a CSV file or --sample is required")
	}

	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.close()
	defer s.flush()

	ctx := cmd.Context()
	ctrl := s.page.Controller

	if sample {
		_, err = ctrl.LoadSample(ctx)
	} else {
		f, openErr := os.Open(file)
		if openErr != nil {
			return fmt.Errorf("open dataset: %w", openErr)
		}
		defer f.Close()
		_, err = ctrl.Upload(ctx, file, f)
	}
	if err != nil {
		return err
	}

	if k == 0 {
		opt, err := ctrl.FindOptimal(ctx)
		if err != nil {
			return err
		}
		k = opt.K
	} else if err := ctrl.SelectK(k); err != nil {
		return err
	}

	if _, err := ctrl.RunClustering(ctx, k); err != nil {
		return err
	}
	if err := ctrl.ViewResults(); err != nil {
		return err
	}

	view := s.page.Reconciler.Load(ctx)
	s.flush()
	fmt.Fprint(s.out, s.render.View(view))
	return nil
}
