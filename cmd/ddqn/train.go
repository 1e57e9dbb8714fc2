package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"github.com/polecart/ddqn/agent/doubledqn"
	"github.com/polecart/ddqn/environment/classiccontrol/cartpole"
	"github.com/polecart/ddqn/experiment"
	"github.com/polecart/ddqn/experiment/checkpointer"
	"github.com/polecart/ddqn/experiment/tracker"
	"github.com/polecart/ddqn/report"
)

func trainCommand() *cobra.Command {
	var (
		episodes        int
		episodeSteps    int
		seed            int64
		out             string
		checkpointEvery int
		quiet           bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a double deep Q-learning agent on Cartpole",
		RunE: func(cmd *cobra.Command, args []string) error {
			return train(episodes, episodeSteps, seed, resultsDir(out),
				checkpointEvery, quiet)
		},
	}

	cmd.Flags().IntVar(&episodes, "episodes", 1000,
		"maximum number of training episodes")
	cmd.Flags().IntVar(&episodeSteps, "episode-steps", 500,
		"step limit per episode")
	cmd.Flags().Int64Var(&seed, "seed", 1,
		"seed for weights, exploration, and starting states")
	cmd.Flags().StringVar(&out, "out", "",
		"base directory for run outputs")
	cmd.Flags().IntVar(&checkpointEvery, "checkpoint-every", 100,
		"episodes between weight checkpoints")
	cmd.Flags().BoolVar(&quiet, "quiet", false,
		"suppress per-episode progress logging")

	return cmd
}

func train(episodes, episodeSteps int, seed int64, out string,
	checkpointEvery int, quiet bool) error {
	runID := uuid.NewString()[:8]
	runDir := filepath.Join(out, "run-"+runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("train: could not create run directory: %v", err)
	}

	task := cartpole.NewBalance(cartpole.NewDefaultStarter(uint64(seed)),
		episodeSteps, -10.0)
	environment, _ := cartpole.New(task, 1.0)

	config := doubledqn.DefaultConfig()
	agent, err := doubledqn.New(environment, config, seed)
	if err != nil {
		return fmt.Errorf("train: could not create agent: %v", err)
	}

	returnsFile := filepath.Join(runDir, "returns.bin")
	trackers := []tracker.Tracker{tracker.NewReturn(returnsFile)}

	nstep, err := checkpointer.NewNStep(checkpointEvery, agent, runDir,
		"weights")
	if err != nil {
		return fmt.Errorf("train: could not create checkpointer: %v", err)
	}

	expConfig := experiment.DefaultOnlineConfig()
	expConfig.MaxEpisodes = episodes

	exp, err := experiment.NewOnline(environment, agent, expConfig,
		trackers, []checkpointer.Checkpointer{nstep})
	if err != nil {
		return fmt.Errorf("train: could not create experiment: %v", err)
	}
	exp.Verbose(!quiet)

	fmt.Println(aurora.Bold(fmt.Sprintf("Training run %v (seed %v)", runID,
		seed)))
	if err := exp.Run(); err != nil {
		return fmt.Errorf("train: %v", err)
	}

	if err := exp.Save(); err != nil {
		return fmt.Errorf("train: could not save tracked data: %v", err)
	}
	weightsFile := filepath.Join(runDir, "weights_final.bin")
	if err := agent.Save(weightsFile); err != nil {
		return fmt.Errorf("train: could not save final weights: %v", err)
	}

	chartFile := filepath.Join(runDir, "rewards.html")
	title := fmt.Sprintf("Cartpole Double DQN (run %v)", runID)
	if err := report.RewardCurve(exp.Returns(), expConfig.SolveWindow,
		title, chartFile); err != nil {
		return fmt.Errorf("train: could not render reward curve: %v", err)
	}

	fmt.Println(aurora.Bold(aurora.Green("Run outputs written to " + runDir)))
	return nil
}
