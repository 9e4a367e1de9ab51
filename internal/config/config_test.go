package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/valo/eth-sim/internal/recorder"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WS_URL", "ws://localhost:8546")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	require.Equal(t, []string{BackendCaching}, cfg.Backends)
	require.Equal(t, FeedFull, cfg.FeedMode)
	require.Equal(t, 64, cfg.FeedBuffer)
	require.Equal(t, 330.0, cfg.RateLimit)
	require.Equal(t, 5*time.Second, cfg.RequestTimeout)
	require.Equal(t, 100*time.Millisecond, cfg.RetryInitial)
	require.Equal(t, "ws://localhost:8546", cfg.SubscriptionURL())
	require.Equal(t, "ws://localhost:8546", cfg.RequestURL())
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	file := filepath.Join(dir, "replayer.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
rpc_url: http://file:8545
ws_url: ws://file:8546
workers: 3
backends: [remote, caching]
txpool_poll_interval: 2s
`), 0o600))
	t.Setenv("CONFIG_FILE", file)
	t.Setenv("WORKERS", "7")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	require.Equal(t, "http://file:8545", cfg.RPCURL)
	require.Equal(t, 7, cfg.Workers)
	require.Equal(t, []string{BackendRemote, BackendCaching}, cfg.Backends)
	require.Equal(t, 2*time.Second, cfg.TxPoolPollInterval)
}

func TestLoadConfig_FlagsWin(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WS_URL", "ws://env:8546")
	t.Setenv("BACKENDS", "remote")

	cfg, err := LoadConfig(&Flags{Backends: "Remote, Caching", Workers: 2, LogLevel: "debug"})
	require.NoError(t, err)
	require.Equal(t, []string{BackendRemote, BackendCaching}, cfg.Backends)
	require.Equal(t, 2, cfg.Workers)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_RejectsMalformedNumbers(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WS_URL", "ws://localhost:8546")
	t.Setenv("WORKERS", "many")

	_, err := LoadConfig(nil)
	require.ErrorContains(t, err, "WORKERS")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := defaults()
		c.WSURL = "ws://localhost:8546"
		return c
	}

	tests := map[string]struct {
		mutate func(*Config)
		err    string
	}{
		"valid": {
			mutate: func(*Config) {},
		},
		"unknown backend": {
			mutate: func(c *Config) { c.Backends = []string{"magic"} },
			err:    "unknown backend",
		},
		"duplicate backend": {
			mutate: func(c *Config) { c.Backends = []string{BackendRemote, BackendRemote} },
			err:    "listed twice",
		},
		"local without path": {
			mutate: func(c *Config) { c.Backends = []string{BackendLocal} },
			err:    "LOCAL_DB_PATH",
		},
		"subscription over http": {
			mutate: func(c *Config) { c.WSURL = ""; c.RPCURL = "http://localhost:8545" },
			err:    "websocket",
		},
		"txpool over http": {
			mutate: func(c *Config) { c.WSURL = ""; c.RPCURL = "http://localhost:8545"; c.FeedMode = FeedTxPool },
		},
		"no endpoint": {
			mutate: func(c *Config) { c.WSURL = "" },
			err:    "RPC_URL or WS_URL",
		},
		"zero workers": {
			mutate: func(c *Config) { c.Workers = 0 },
			err:    "workers",
		},
		"otlp without endpoint": {
			mutate: func(c *Config) { c.EnableOTLP = true },
			err:    "OTLP_ENDPOINT",
		},
		"msgpack records": {
			mutate: func(c *Config) { c.RecordFormat = recorder.FormatMsgpack },
		},
		"unknown record format": {
			mutate: func(c *Config) { c.RecordFormat = "csv" },
			err:    "record format",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			test.mutate(&c)
			err := c.Validate()
			if test.err == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, test.err)
		})
	}
}

func TestCanSubscribe(t *testing.T) {
	tests := map[string]struct {
		rpc, ws string
		want    bool
	}{
		"websocket":          {ws: "wss://node:8546", want: true},
		"ipc socket":         {rpc: "/data/geth.ipc", want: true},
		"http only":          {rpc: "http://node:8545", want: false},
		"websocket wins":     {rpc: "http://node:8545", ws: "ws://node:8546", want: true},
		"no endpoint at all": {want: false},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := defaults()
			cfg.RPCURL, cfg.WSURL = test.rpc, test.ws
			require.Equal(t, test.want, cfg.CanSubscribe())
		})
	}
}

func TestPolicy_CarriesRequestLimits(t *testing.T) {
	cfg := defaults()
	cfg.RateLimit = 25
	cfg.RateBurst = 4
	cfg.RetryMax = 2

	p := cfg.Policy()
	require.Equal(t, 25.0, p.RateLimit)
	require.Equal(t, 4, p.RateBurst)
	require.Equal(t, 5*time.Second, p.RequestTimeout)
	require.Equal(t, 100*time.Millisecond, p.RetryInitial)
	require.Equal(t, uint64(2), p.RetryMax)
}
