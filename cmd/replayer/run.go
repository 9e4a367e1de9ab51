package main

import (
	"github.com/urfave/cli/v2"

	"github.com/valo/eth-sim/internal/logger"
	"github.com/valo/eth-sim/internal/metrics"
	"github.com/valo/eth-sim/internal/replayer"
)

var runCommand = cli.Command{
	Action: run,
	Name:   "run",
	Usage:  "follows the chain and simulates every pending transaction until interrupted",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "otlp", Usage: "push metrics to an OTLP collector (overrides ENABLE_OTLP)"},
		&cli.StringFlag{Name: "otlp-endpoint", Usage: "OTLP collector endpoint"},
		&cli.BoolFlag{Name: "otlp-insecure", Usage: "use plain HTTP for OTLP"},
		&cli.StringFlag{Name: "alias", Usage: "instance name attached to metrics"},
	},
}

func run(c *cli.Context) error {
	flags := flagsFrom(c)
	cfg, err := setup(c, flags)
	if err != nil {
		return err
	}
	if c.IsSet("otlp") {
		cfg.EnableOTLP = c.Bool("otlp")
	}
	if c.IsSet("otlp-endpoint") {
		cfg.OTLPEndpoint = c.String("otlp-endpoint")
	}
	if c.IsSet("otlp-insecure") {
		cfg.OTLPInsecure = c.Bool("otlp-insecure")
	}
	if c.IsSet("alias") {
		cfg.Alias = c.String("alias")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := c.Context
	metricsConfig := metrics.MetricsConfig{
		EnablePrometheus: true,
		EnableOTLP:       cfg.EnableOTLP,
		OTLPEndpoint:     cfg.OTLPEndpoint,
		OTLPInsecure:     cfg.OTLPInsecure,
		Alias:            cfg.Alias,
		Chain:            chainLabel(cfg.ChainID),
		Port:             cfg.MetricsPort,
	}
	if err := metrics.InitMetrics(ctx, metricsConfig); err != nil {
		return err
	}

	if err := replayer.Start(ctx, cfg); err != nil {
		return err
	}
	logger.InfoComponent("system", "Shutting down gracefully")
	return nil
}
