package experiment

import (
	"fmt"
	"math"

	"github.com/logrusorgru/aurora"
	"gonum.org/v1/gonum/mat"

	"github.com/polecart/ddqn/agent"
	env "github.com/polecart/ddqn/environment"
	"github.com/polecart/ddqn/experiment/checkpointer"
	"github.com/polecart/ddqn/experiment/tracker"
	ts "github.com/polecart/ddqn/timestep"
	"github.com/polecart/ddqn/utils/floatutils"
)

// OnlineConfig describes the schedule of an Online experiment
type OnlineConfig struct {
	// Maximum number of training episodes to run
	MaxEpisodes int

	// Number of episodes between target network synchronizations
	TargetSyncInterval int

	// The experiment stops early once the average episodic return
	// over the last SolveWindow episodes reaches SolveThreshold
	SolveThreshold float64
	SolveWindow    int
}

// DefaultOnlineConfig returns the reference schedule: up to 1000
// episodes, target synchronization every 10 episodes, solved at an
// average return of 195 over 100 consecutive episodes.
func DefaultOnlineConfig() OnlineConfig {
	return OnlineConfig{
		MaxEpisodes:        1000,
		TargetSyncInterval: 10,
		SolveThreshold:     195.0,
		SolveWindow:        100,
	}
}

// Online is an experiment in which an agent learns while interacting
// with its environment. The agent acts and records experience on every
// timestep, performs one learning call at the end of each episode, and
// synchronizes its target network on a fixed episode interval.
type Online struct {
	environment env.Environment
	agent       agent.Agent
	syncer      agent.TargetSyncer
	explorer    agent.Explorer
	config      OnlineConfig
	features    int

	returns       []float64
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer

	verbose bool
}

// NewOnline creates and returns a new Online experiment. The agent
// must expose target synchronization; exposing an exploration rate is
// optional and only affects logging.
func NewOnline(e env.Environment, a agent.Agent, c OnlineConfig,
	trackers []tracker.Tracker,
	checkpointers []checkpointer.Checkpointer) (*Online, error) {
	if c.MaxEpisodes < 1 {
		return nil, fmt.Errorf("newonline: max episodes must be >= 1"+
			"\n\thave(%v)", c.MaxEpisodes)
	}
	if c.TargetSyncInterval < 1 {
		return nil, fmt.Errorf("newonline: target sync interval must be "+
			">= 1\n\thave(%v)", c.TargetSyncInterval)
	}
	if c.SolveWindow < 1 {
		return nil, fmt.Errorf("newonline: solve window must be >= 1"+
			"\n\thave(%v)", c.SolveWindow)
	}

	syncer, ok := a.(agent.TargetSyncer)
	if !ok {
		return nil, fmt.Errorf("newonline: agent does not expose target " +
			"synchronization")
	}
	explorer, _ := a.(agent.Explorer)

	return &Online{
		environment:   e,
		agent:         a,
		syncer:        syncer,
		explorer:      explorer,
		config:        c,
		features:      e.ObservationSpec().Shape.Len(),
		trackers:      trackers,
		checkpointers: checkpointers,
	}, nil
}

// Verbose toggles per-episode progress logging
func (o *Online) Verbose(on bool) {
	o.verbose = on
}

// Run runs the experiment until the environment is solved or the
// episode cap is reached
func (o *Online) Run() error {
	for episode := 1; episode <= o.config.MaxEpisodes; episode++ {
		episodeReturn, err := o.runEpisode()
		if err != nil {
			return fmt.Errorf("run: episode %v: %v", episode, err)
		}
		o.returns = append(o.returns, episodeReturn)

		if err := o.agent.Step(); err != nil {
			return fmt.Errorf("run: could not learn after episode %v: %v",
				episode, err)
		}
		o.agent.EndEpisode()

		if episode%o.config.TargetSyncInterval == 0 {
			if err := o.syncer.SyncTarget(); err != nil {
				return fmt.Errorf("run: could not sync target network "+
					"after episode %v: %v", episode, err)
			}
		}

		for _, c := range o.checkpointers {
			if err := c.Checkpoint(episode); err != nil {
				return fmt.Errorf("run: %v", err)
			}
		}

		average := o.windowAverage()
		if o.verbose {
			o.logEpisode(episode, episodeReturn, average)
		}

		if len(o.returns) >= o.config.SolveWindow &&
			average >= o.config.SolveThreshold {
			if o.verbose {
				fmt.Println(aurora.Bold(aurora.Green(fmt.Sprintf(
					"Solved in %v episodes (average return %.2f over "+
						"last %v)", episode, average,
					o.config.SolveWindow))))
			}
			return nil
		}
	}
	return nil
}

// runEpisode runs a single episode, returning its episodic return
func (o *Online) runEpisode() (float64, error) {
	step := o.environment.Reset()
	if err := checkObservation(step.Observation, o.features); err != nil {
		return 0, err
	}
	if err := o.agent.ObserveFirst(step); err != nil {
		return 0, err
	}
	o.track(step)

	episodeReturn := 0.0
	for !step.Last() {
		action := o.agent.SelectAction(step)

		nextStep, _, err := o.environment.Step(action)
		if err != nil {
			return 0, fmt.Errorf("could not step environment: %v", err)
		}
		if err := checkObservation(nextStep.Observation, o.features); err != nil {
			return 0, err
		}

		if err := o.agent.Observe(action, nextStep); err != nil {
			return 0, fmt.Errorf("could not observe transition: %v", err)
		}
		o.track(nextStep)

		episodeReturn += nextStep.Reward
		step = nextStep
	}

	return episodeReturn, nil
}

// Returns returns the episodic returns recorded so far
func (o *Online) Returns() []float64 {
	out := make([]float64, len(o.returns))
	copy(out, o.returns)
	return out
}

// Save writes the data of all registered Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

func (o *Online) track(step ts.TimeStep) {
	for _, t := range o.trackers {
		t.Track(step)
	}
}

// windowAverage returns the average return over the last SolveWindow
// episodes, or over all episodes when fewer have run.
func (o *Online) windowAverage() float64 {
	window := o.returns
	if len(window) > o.config.SolveWindow {
		window = window[len(window)-o.config.SolveWindow:]
	}
	return floatutils.Mean(window)
}

func (o *Online) logEpisode(episode int, episodeReturn, average float64) {
	line := fmt.Sprintf("Episode %4d  |  Return: %7.2f  |  Average: %7.2f",
		episode, episodeReturn, average)
	if o.explorer != nil {
		line += fmt.Sprintf("  |  ε: %.3f", o.explorer.Epsilon())
	}

	if average >= o.config.SolveThreshold {
		fmt.Println(aurora.Green(line))
	} else {
		fmt.Println(aurora.Cyan(line))
	}
}

// checkObservation guards against degenerate observations. An empty or
// wrongly sized state vector, or a NaN or infinite feature, would
// otherwise reach the estimator and either fail deep inside a matrix
// routine or silently poison every weight it touches through the
// replay buffer, so the episode is aborted instead.
func checkObservation(obs mat.Vector, features int) error {
	if obs == nil || obs.Len() == 0 {
		return fmt.Errorf("degenerate observation: empty state vector")
	}
	if obs.Len() != features {
		return fmt.Errorf("degenerate observation: wrong number of "+
			"features\n\twant(%v)\n\thave(%v)", features, obs.Len())
	}

	for i := 0; i < obs.Len(); i++ {
		if v := obs.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("degenerate observation: feature %v is %v",
				i, v)
		}
	}
	return nil
}
