package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/valo/eth-sim/internal/config"
	"github.com/valo/eth-sim/internal/replayer"
)

var replayCommand = cli.Command{
	Action:    replay,
	Name:      "replay",
	Usage:     "simulates one transaction against the current tip and prints its records",
	ArgsUsage: "<tx hash>",
}

func replay(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one transaction hash")
	}
	raw, err := hexutil.Decode(c.Args().Get(0))
	if err != nil || len(raw) != common.HashLength {
		return fmt.Errorf("invalid transaction hash %q", c.Args().Get(0))
	}
	hash := common.BytesToHash(raw)

	flags := flagsFrom(c)
	// no pending feed is started, so only the request endpoint is needed
	flags.FeedMode = config.FeedTxPool
	cfg, err := setup(c, flags)
	if err != nil {
		return err
	}

	e, err := replayer.New(c.Context, cfg)
	if err != nil {
		return err
	}
	records, replayErr := e.Replay(c.Context, hash)
	closeErr := e.Close()
	if err := errors.Join(replayErr, closeErr); err != nil {
		return err
	}

	for _, rec := range records {
		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		printf("%s\n", out)
	}
	return nil
}
