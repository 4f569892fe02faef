/*
Package main is the entry point for segctl.

segctl drives the customer segmentation workflow from the terminal.

Usage:

	segctl [command]

Examples:

	# Upload a dataset and cluster it with the optimal k
	segctl run customers.csv

	# Reload the last results from the shared session cache
	segctl --redis redis://localhost:6379 results
*/
package main

import (
	"fmt"
	"os"

	"github.com/kiranshivaraju/segmentlens/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
