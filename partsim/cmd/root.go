// Package cmd provides the command-line interface for partsim.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/sarchlab/partsim/config"
	"github.com/sarchlab/partsim/simulation"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

type app struct {
	fs  afero.Fs
	out io.Writer
	cfg *config.Config
	log logr.Logger
}

// NewRootCommand creates the partsim command. Inputs are read from fs and
// reports are written to out.
func NewRootCommand(fs afero.Fs, out io.Writer) *cobra.Command {
	a := &app{fs: fs, out: out, log: logr.Discard()}

	rootCmd := &cobra.Command{
		Use:   "partsim",
		Short: "partsim estimates the makespan of a layer graph partitioned across devices.",
		Long: `partsim estimates the makespan of a layer graph partitioned ` +
			`across heterogeneous devices that share one transfer link. It can ` +
			`time a given partition, build a greedy one, or search all of them.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.loadConfig,
	}

	rootCmd.SetOut(out)
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newSimulateCommand(a),
		newGreedyCommand(a),
		newSearchCommand(a),
	)

	return rootCmd
}

// Execute runs the command line and exits.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := NewRootCommand(afero.NewOsFs(), os.Stdout).ExecuteContext(ctx)
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	stdr.SetVerbosity(cfg.Verbosity)
	a.log = stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("partsim")
	a.cfg = cfg

	return nil
}

func (a *app) build() (*simulation.Simulation, error) {
	s, err := simulation.MakeBuilder().
		WithConfig(a.cfg).
		WithFs(a.fs).
		WithLogger(a.log).
		WithOutput(a.out).
		Build()
	if err != nil {
		return nil, fmt.Errorf("cannot set up the run: %w", err)
	}

	return s, nil
}

func (a *app) terminate(s *simulation.Simulation) {
	if err := s.Terminate(); err != nil {
		a.log.Error(err, "cannot close outputs")
	}
}
