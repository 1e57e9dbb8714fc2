package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polecart/ddqn/experiment/tracker"
	"github.com/polecart/ddqn/report"
)

func compareCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "compare [name=]returns.bin ...",
		Short: "Plot the episodic returns of several training runs together",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return compare(args, out)
		},
	}

	cmd.Flags().StringVar(&out, "out", "comparison.html",
		"output HTML file")

	return cmd
}

func compare(args []string, out string) error {
	runs := make(map[string][]float64, len(args))
	for _, arg := range args {
		name, path := splitRunArg(arg)

		returns, err := tracker.LoadFData(path)
		if err != nil {
			return fmt.Errorf("compare: could not load run %v: %v", name,
				err)
		}
		runs[name] = returns
	}

	if err := report.Compare(runs, "Cartpole Double DQN", out); err != nil {
		return fmt.Errorf("compare: %v", err)
	}

	fmt.Println("Comparison written to", out)
	return nil
}

// splitRunArg splits a "name=path" argument, falling back to the
// parent directory name when no explicit name is given.
func splitRunArg(arg string) (name, path string) {
	if i := strings.IndexByte(arg, '='); i >= 0 {
		return arg[:i], arg[i+1:]
	}
	return filepath.Base(filepath.Dir(arg)), arg
}
