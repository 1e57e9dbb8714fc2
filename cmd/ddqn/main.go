// The ddqn command trains, evaluates, and compares double deep
// Q-learning agents on the Cartpole balancing task.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ddqn",
		Short: "Train and evaluate double deep Q-learning agents on Cartpole",
	}

	// A .env file may set defaults such as DDQN_RESULTS
	for _, envFile := range []string{
		".env",
		"../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	rootCmd.AddCommand(trainCommand())
	rootCmd.AddCommand(evalCommand())
	rootCmd.AddCommand(compareCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resultsDir returns the base directory for run outputs, preferring
// the command-line flag, then the DDQN_RESULTS environment variable.
func resultsDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if dir := os.Getenv("DDQN_RESULTS"); dir != "" {
		return dir
	}
	return "results"
}
