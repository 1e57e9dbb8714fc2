package main

import (
	"fmt"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"github.com/polecart/ddqn/agent/doubledqn"
	"github.com/polecart/ddqn/environment/classiccontrol/cartpole"
	"github.com/polecart/ddqn/utils/floatutils"
)

func evalCommand() *cobra.Command {
	var (
		weights      string
		episodes     int
		episodeSteps int
		seed         int64
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate saved agent weights with a greedy policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return eval(weights, episodes, episodeSteps, seed)
		},
	}

	cmd.Flags().StringVar(&weights, "weights", "",
		"checkpoint file written during training")
	cmd.Flags().IntVar(&episodes, "episodes", 10,
		"number of evaluation episodes")
	cmd.Flags().IntVar(&episodeSteps, "episode-steps", 500,
		"step limit per episode")
	cmd.Flags().Int64Var(&seed, "seed", 1,
		"seed for starting states")
	cmd.MarkFlagRequired("weights")

	return cmd
}

func eval(weights string, episodes, episodeSteps int, seed int64) error {
	task := cartpole.NewBalance(cartpole.NewDefaultStarter(uint64(seed)),
		episodeSteps, -10.0)
	environment, _ := cartpole.New(task, 1.0)

	agent, err := doubledqn.New(environment, doubledqn.DefaultConfig(), seed)
	if err != nil {
		return fmt.Errorf("eval: could not create agent: %v", err)
	}
	if err := agent.Load(weights); err != nil {
		return fmt.Errorf("eval: %v", err)
	}
	agent.Eval()

	returns := make([]float64, episodes)
	for episode := 0; episode < episodes; episode++ {
		step := environment.Reset()
		if err := agent.ObserveFirst(step); err != nil {
			return fmt.Errorf("eval: %v", err)
		}

		episodeReturn := 0.0
		for !step.Last() {
			action := agent.SelectAction(step)

			nextStep, _, err := environment.Step(action)
			if err != nil {
				return fmt.Errorf("eval: could not step environment: %v",
					err)
			}
			if err := agent.Observe(action, nextStep); err != nil {
				return fmt.Errorf("eval: %v", err)
			}

			episodeReturn += nextStep.Reward
			step = nextStep
		}

		returns[episode] = episodeReturn
		fmt.Println(aurora.Cyan(fmt.Sprintf(
			"Evaluation episode %3d  |  Return: %7.2f", episode+1,
			episodeReturn)))
	}

	fmt.Println(aurora.Bold(fmt.Sprintf(
		"Average return over %v episodes: %.2f", episodes,
		floatutils.Mean(returns))))
	return nil
}
