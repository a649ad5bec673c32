// Command simulate plays World Cup brackets offline and prints them.
//
//	simulate -dataset data/2026_worldcup_COMPLETE.json -random -seed 42
//	simulate -group 'Brazil,"Korea, Republic of",Chile,Ghana' ... -runs 1000
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/okian/copa/internal/config"
	"github.com/okian/copa/internal/domain/dataset"
	"github.com/okian/copa/internal/domain/groups"
	"github.com/okian/copa/internal/simcli"
	"github.com/okian/copa/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if errors.Is(err, groups.ErrIncompleteGroups) {
			os.Stderr.WriteString(groups.IncompleteGroupsMessage + "\n")
		}
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	var opts simcli.Options
	var grps simcli.GroupFlag
	fsFlags := flag.NewFlagSet("simulate", flag.ContinueOnError)
	datasetPath := fsFlags.String("dataset", cfg.DatasetPath, "teams and predictions document (JSON or YAML)")
	fsFlags.Var(&grps, "group", "comma separated teams of one group, in group order; repeat per group")
	fsFlags.BoolVar(&opts.Random, "random", false, "fill empty slots with random teams")
	fsFlags.Int64Var(&opts.Seed, "seed", cfg.Seed, "random seed; 0 seeds from the clock")
	fsFlags.IntVar(&opts.Runs, "runs", 1, "number of tournaments to play")
	if err := fsFlags.Parse(args); err != nil {
		return err
	}
	opts.Groups = grps

	ds, err := dataset.Load(ctx, *datasetPath, dataset.WithDefaultScore(cfg.DefaultPerformanceScore))
	if err != nil {
		return err
	}
	return simcli.NewRunner(ds, os.Stdout).Run(ctx, opts)
}
