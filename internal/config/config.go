package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/valo/eth-sim/internal/logger"
	"github.com/valo/eth-sim/internal/recorder"
	"github.com/valo/eth-sim/internal/rpcclient"
)

// backend names accepted in BACKENDS
const (
	BackendRemote  = "remote"
	BackendCaching = "caching"
	BackendLocal   = "local"
)

// pending feed sources accepted in FEED_MODE
const (
	FeedFull   = "full"
	FeedHashes = "hashes"
	FeedTxPool = "txpool"
)

// Config holds configuration values
type Config struct {
	RPCURL string `yaml:"rpc_url"`
	WSURL  string `yaml:"ws_url"`

	Backends           []string      `yaml:"backends"`
	FeedMode           string        `yaml:"feed_mode"`
	FeedBuffer         int           `yaml:"feed_buffer"`
	TxPoolPollInterval time.Duration `yaml:"txpool_poll_interval"`

	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`

	RateLimit      float64       `yaml:"rate_limit"`
	RateBurst      int           `yaml:"rate_burst"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RetryInitial   time.Duration `yaml:"retry_initial"`
	RetryMax       uint64        `yaml:"retry_max"`

	LocalDBPath    string `yaml:"local_db_path"`
	LocalDBEngine  string `yaml:"local_db_engine"`
	LocalDBAncient string `yaml:"local_db_ancient"`

	ChainID            uint64 `yaml:"chain_id"`
	MaxDiscoveryRounds int    `yaml:"max_discovery_rounds"`
	SkipNonceChecks    bool   `yaml:"skip_nonce_checks"`

	RecordFile   string `yaml:"record_file"`
	RecordFormat string `yaml:"record_format"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	MetricsPort  int    `yaml:"metrics_port"`
	EnableOTLP   bool   `yaml:"enable_otlp"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
	Alias        string `yaml:"alias"`
}

// Flags carries command line overrides; zero values leave the loaded
// configuration untouched.
type Flags struct {
	ConfigFile string
	RPCURL     string
	WSURL      string
	Backends   string
	FeedMode   string
	Workers    int
	LocalDB    string
	RecordFile string
	LogLevel   string
}

func defaults() Config {
	return Config{
		Backends:           []string{BackendCaching},
		FeedMode:           FeedFull,
		FeedBuffer:         64,
		TxPoolPollInterval: time.Second,
		Workers:            runtime.NumCPU(),
		QueueSize:          256,
		RateLimit:          330,
		RateBurst:          10,
		RequestTimeout:     5 * time.Second,
		RetryInitial:       100 * time.Millisecond,
		RetryMax:           5,
		LocalDBEngine:      "leveldb",
		MaxDiscoveryRounds: 64,
		RecordFormat:       recorder.FormatJSONL,
		LogLevel:           "info",
		LogFormat:          "console",
		MetricsPort:        8086,
		Alias:              "eth-sim",
	}
}

// LoadConfig loads the .env file, an optional YAML file, environment
// variables and flag overrides, in increasing order of precedence.
func LoadConfig(flags *Flags) (Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warning("No .env file found, using default environment variables")
	}

	cfg := defaults()

	file := os.Getenv("CONFIG_FILE")
	if flags != nil && flags.ConfigFile != "" {
		file = flags.ConfigFile
	}
	if file != "" {
		if err := loadFile(file, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if flags != nil {
		applyFlags(&cfg, flags)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	var errs []string
	parse := func(key string, set func(string) error) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		if err := set(v); err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q: %v", key, v, err))
		}
	}
	intVar := func(dst *int) func(string) error {
		return func(v string) (err error) {
			*dst, err = strconv.Atoi(v)
			return err
		}
	}
	boolVar := func(dst *bool) func(string) error {
		return func(v string) (err error) {
			*dst, err = strconv.ParseBool(v)
			return err
		}
	}
	durVar := func(dst *time.Duration) func(string) error {
		return func(v string) (err error) {
			*dst, err = time.ParseDuration(v)
			return err
		}
	}

	str("RPC_URL", &cfg.RPCURL)
	str("WS_URL", &cfg.WSURL)
	if v := os.Getenv("BACKENDS"); v != "" {
		cfg.Backends = splitList(v)
	}
	str("FEED_MODE", &cfg.FeedMode)
	parse("FEED_BUFFER", intVar(&cfg.FeedBuffer))
	parse("TXPOOL_POLL_INTERVAL", durVar(&cfg.TxPoolPollInterval))
	parse("WORKERS", intVar(&cfg.Workers))
	parse("QUEUE_SIZE", intVar(&cfg.QueueSize))
	parse("RATE_LIMIT", func(v string) (err error) {
		cfg.RateLimit, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("RATE_BURST", intVar(&cfg.RateBurst))
	parse("REQUEST_TIMEOUT", durVar(&cfg.RequestTimeout))
	parse("RETRY_INITIAL", durVar(&cfg.RetryInitial))
	parse("RETRY_MAX", func(v string) (err error) {
		cfg.RetryMax, err = strconv.ParseUint(v, 10, 64)
		return err
	})
	str("LOCAL_DB_PATH", &cfg.LocalDBPath)
	str("LOCAL_DB_ENGINE", &cfg.LocalDBEngine)
	str("LOCAL_DB_ANCIENT", &cfg.LocalDBAncient)
	parse("CHAIN_ID", func(v string) (err error) {
		cfg.ChainID, err = strconv.ParseUint(v, 10, 64)
		return err
	})
	parse("MAX_DISCOVERY_ROUNDS", intVar(&cfg.MaxDiscoveryRounds))
	parse("SKIP_NONCE_CHECKS", boolVar(&cfg.SkipNonceChecks))
	str("RECORD_FILE", &cfg.RecordFile)
	str("RECORD_FORMAT", &cfg.RecordFormat)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	parse("METRICS_PORT", intVar(&cfg.MetricsPort))
	parse("ENABLE_OTLP", boolVar(&cfg.EnableOTLP))
	str("OTLP_ENDPOINT", &cfg.OTLPEndpoint)
	parse("OTLP_INSECURE", boolVar(&cfg.OTLPInsecure))
	str("ALIAS", &cfg.Alias)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

func applyFlags(cfg *Config, f *Flags) {
	if f.RPCURL != "" {
		cfg.RPCURL = f.RPCURL
	}
	if f.WSURL != "" {
		cfg.WSURL = f.WSURL
	}
	if f.Backends != "" {
		cfg.Backends = splitList(f.Backends)
	}
	if f.FeedMode != "" {
		cfg.FeedMode = f.FeedMode
	}
	if f.Workers > 0 {
		cfg.Workers = f.Workers
	}
	if f.LocalDB != "" {
		cfg.LocalDBPath = f.LocalDB
	}
	if f.RecordFile != "" {
		cfg.RecordFile = f.RecordFile
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports the first inconsistency in the configuration.
func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return fmt.Errorf("no backends configured")
	}
	seen := make(map[string]bool)
	for _, b := range c.Backends {
		switch b {
		case BackendRemote, BackendCaching:
		case BackendLocal:
			if c.LocalDBPath == "" {
				return fmt.Errorf("backend %q requires LOCAL_DB_PATH", b)
			}
			if c.LocalDBEngine != "leveldb" && c.LocalDBEngine != "pebble" {
				return fmt.Errorf("unknown local database engine %q", c.LocalDBEngine)
			}
		default:
			return fmt.Errorf("unknown backend %q", b)
		}
		if seen[b] {
			return fmt.Errorf("backend %q listed twice", b)
		}
		seen[b] = true
	}
	switch c.FeedMode {
	case FeedFull, FeedHashes, FeedTxPool:
	default:
		return fmt.Errorf("unknown feed mode %q", c.FeedMode)
	}
	if c.SubscriptionURL() == "" {
		return fmt.Errorf("RPC_URL or WS_URL must be set")
	}
	if c.FeedMode != FeedTxPool && !isStreamingURL(c.SubscriptionURL()) {
		return fmt.Errorf("feed mode %q needs a websocket or ipc endpoint, got %q", c.FeedMode, c.SubscriptionURL())
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.QueueSize < 0 || c.FeedBuffer <= 0 {
		return fmt.Errorf("queue size and feed buffer must be positive")
	}
	if c.MaxDiscoveryRounds <= 0 {
		return fmt.Errorf("max discovery rounds must be positive")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("rate limit and burst must be positive")
	}
	switch c.RecordFormat {
	case recorder.FormatJSONL, recorder.FormatMsgpack:
	default:
		return fmt.Errorf("unknown record format %q", c.RecordFormat)
	}
	if c.EnableOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP_ENDPOINT is required when OTLP is enabled")
	}
	return nil
}

// SubscriptionURL is the endpoint used for eth_subscribe; the websocket URL
// wins over the request URL when both are set.
func (c Config) SubscriptionURL() string {
	if c.WSURL != "" {
		return c.WSURL
	}
	return c.RPCURL
}

// RequestURL is the endpoint used for plain request/response calls.
func (c Config) RequestURL() string {
	if c.RPCURL != "" {
		return c.RPCURL
	}
	return c.WSURL
}

// CanSubscribe reports whether the subscription endpoint supports
// eth_subscribe.
func (c Config) CanSubscribe() bool {
	return isStreamingURL(c.SubscriptionURL())
}

// Policy is the request policy for the remote backends.
func (c Config) Policy() rpcclient.Policy {
	return rpcclient.Policy{
		RateLimit:      c.RateLimit,
		RateBurst:      c.RateBurst,
		RequestTimeout: c.RequestTimeout,
		RetryInitial:   c.RetryInitial,
		RetryMax:       c.RetryMax,
	}
}

func isStreamingURL(u string) bool {
	return strings.HasPrefix(u, "ws://") || strings.HasPrefix(u, "wss://") ||
		strings.HasSuffix(u, ".ipc") || strings.HasPrefix(u, "/")
}
