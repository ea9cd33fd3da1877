// hefty-cleanup deletes the blobs written for a topic, or a single partition of it, after the
// topic's consumers have been reset.
//
//	hefty-cleanup --config hefty.yaml --topic orders [--partition 3] [--rate 50]
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	hefty "github.com/vinujohn/hefty-blob"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath    string
	topic         string
	partition     int32
	allPartitions bool // --partition was not given
	rate          float64
	logLevel      string
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}

	flagSet := pflag.NewFlagSet("hefty-cleanup", pflag.ContinueOnError)
	flagSet.StringVar(&f.configPath, "config", "", "path to the YAML config file (default: $"+hefty.ConfigEnv+")")
	flagSet.StringVar(&f.topic, "topic", "", "topic whose blobs are deleted")
	flagSet.Int32Var(&f.partition, "partition", 0, "only delete blobs of this partition, -1 for unassigned (default: all partitions)")
	flagSet.Float64Var(&f.rate, "rate", 0, "maximum keys deleted per second, 0 for unlimited")
	flagSet.StringVar(&f.logLevel, "log-level", "info", "debug, info, warn or error")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if f.topic == "" {
		return nil, errors.New("--topic is required")
	}
	if f.rate < 0 {
		return nil, errors.New("--rate must not be negative")
	}
	f.allPartitions = !flagSet.Changed("partition")
	return f, nil
}

func run(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(f.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level. %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var cfg hefty.Config
	if f.configPath != "" {
		cfg, err = hefty.LoadConfigFile(f.configPath)
	} else {
		cfg, err = hefty.LoadConfig()
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []hefty.Option{hefty.WithLogger(logger)}
	if f.rate > 0 {
		opts = append(opts, hefty.WithDeleteRateLimit(f.rate, max(1, int(f.rate))))
	}

	cleaner, err := hefty.NewCleaner(ctx, cfg, nil, opts...)
	if err != nil {
		return err
	}

	var deleted int
	if f.allPartitions {
		deleted, err = cleaner.DeleteTopic(ctx, f.topic)
	} else {
		deleted, err = cleaner.DeletePartition(ctx, f.topic, f.partition)
	}

	fmt.Printf("deleted %d blobs\n", deleted)

	var cleanupErr *hefty.CleanupError
	if errors.As(err, &cleanupErr) {
		for _, key := range cleanupErr.FailedKeys() {
			fmt.Fprintln(os.Stderr, key)
		}
		return fmt.Errorf("%d blobs could not be deleted", len(cleanupErr.Failed))
	}
	return err
}
