package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/valo/eth-sim/internal/config"
	"github.com/valo/eth-sim/internal/logger"
)

var (
	configFlag     = &cli.StringFlag{Name: "config", Usage: "YAML configuration file (overrides CONFIG_FILE)"}
	rpcURLFlag     = &cli.StringFlag{Name: "rpc-url", Usage: "node endpoint for requests (overrides RPC_URL)"}
	wsURLFlag      = &cli.StringFlag{Name: "ws-url", Usage: "node endpoint for subscriptions (overrides WS_URL)"}
	backendsFlag   = &cli.StringFlag{Name: "backends", Usage: "comma separated list of remote, caching, local"}
	feedModeFlag   = &cli.StringFlag{Name: "feed-mode", Usage: "pending feed source: full, hashes or txpool"}
	workersFlag    = &cli.IntFlag{Name: "workers", Usage: "number of simulation workers"}
	localDBFlag    = &cli.StringFlag{Name: "local-db", Usage: "chain database directory for the local backend"}
	recordFileFlag = &cli.StringFlag{Name: "record-file", Usage: "append simulation records to this file"}
	logLevelFlag   = &cli.StringFlag{Name: "log-level", Usage: "debug, info, warning or error"}
	noColorFlag    = &cli.BoolFlag{Name: "no-color", Usage: "disable colored console output"}
)

func main() {
	app := &cli.App{
		Name:  "eth-sim",
		Usage: "replays pending transactions against the chain tip on several state backends",
		Flags: []cli.Flag{
			configFlag, rpcURLFlag, wsURLFlag, backendsFlag, feedModeFlag,
			workersFlag, localDBFlag, recordFileFlag, logLevelFlag, noColorFlag,
		},
		Commands: []*cli.Command{
			&runCommand,
			&replayCommand,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

func flagsFrom(c *cli.Context) *config.Flags {
	return &config.Flags{
		ConfigFile: c.String(configFlag.Name),
		RPCURL:     c.String(rpcURLFlag.Name),
		WSURL:      c.String(wsURLFlag.Name),
		Backends:   c.String(backendsFlag.Name),
		FeedMode:   c.String(feedModeFlag.Name),
		Workers:    c.Int(workersFlag.Name),
		LocalDB:    c.String(localDBFlag.Name),
		RecordFile: c.String(recordFileFlag.Name),
		LogLevel:   c.String(logLevelFlag.Name),
	}
}

// setup loads the configuration and configures logging, including the
// log output of the embedded go-ethereum packages.
func setup(c *cli.Context, flags *config.Flags) (config.Config, error) {
	if c.Bool(noColorFlag.Name) {
		logger.SetColorsEnabled(false)
	}
	cfg, err := config.LoadConfig(flags)
	if err != nil {
		return config.Config{}, err
	}
	if err := logger.SetLogLevel(cfg.LogLevel); err != nil {
		return config.Config{}, err
	}
	logger.SetJSONOutput(cfg.LogFormat == "json")
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(logger.Writer("system"), log.LevelWarn, false)))
	return cfg, nil
}

func chainLabel(id uint64) string {
	switch id {
	case 0:
		return "auto"
	case 1:
		return "mainnet"
	case 11155111:
		return "sepolia"
	case 17000:
		return "holesky"
	}
	return strconv.FormatUint(id, 10)
}

func printf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}
