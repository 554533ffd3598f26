package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/humanproof/humanproof-node/internal"
	"github.com/humanproof/humanproof-node/prover"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultFormat         = "json"
	defaultCircuitVersion = "v2-face-nonce-anchor"
	defaultLogLevel       = "info"
	defaultLogOutput      = "stdout"
	defaultDatadir        = ".humanproof" // prefixed with the user's home directory
)

// Version is the build version, set at build time with -ldflags
var Version = internal.Version

// Config holds the application configuration
type Config struct {
	Image   string
	Output  string
	Format  string
	Circuit CircuitConfig
	Web3    Web3Config
	Prover  ProverConfig
	Log     LogConfig
	Datadir string
}

// CircuitConfig selects the deployed circuit version
type CircuitConfig struct {
	Version string `mapstructure:"version"`
}

// Web3Config holds wallet and explorer configuration
type Web3Config struct {
	Wallet      string `mapstructure:"wallet"`
	Explorer    string `mapstructure:"explorer"`
	ExplorerKey string `mapstructure:"explorerkey"`
}

// ProverConfig holds proof generation configuration
type ProverConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// loadConfig loads configuration from flags, environment variables, and defaults
func loadConfig() (*Config, error) {
	v := viper.New()

	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	defaultDatadirPath := filepath.Join(userHomeDir, defaultDatadir)

	v.SetDefault("format", defaultFormat)
	v.SetDefault("circuit.version", defaultCircuitVersion)
	v.SetDefault("prover.timeout", prover.DefaultTimeout)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.output", defaultLogOutput)
	v.SetDefault("datadir", defaultDatadirPath)

	flag.StringP("image", "i", "", "path to the captured frame (required)")
	flag.StringP("web3.wallet", "w", "", "wallet address to anchor the proof to")
	flag.String("web3.explorer", "", "etherscan-compatible API endpoint for first-transaction lookup")
	flag.String("web3.explorerkey", "", "explorer API key")
	flag.StringP("circuit.version", "c", defaultCircuitVersion, "circuit version to prove against")
	flag.DurationP("prover.timeout", "t", prover.DefaultTimeout, "proof generation timeout (i.e 30s or 2m)")
	flag.StringP("output", "O", "", "write the result to file instead of stdout")
	flag.StringP("format", "f", defaultFormat, "output format: json (calldata) or cbor (full mint artifacts)")
	flag.StringP("log.level", "l", defaultLogLevel, "log level (debug, info, warn, error, fatal)")
	flag.StringP("log.output", "o", defaultLogOutput, "log output (stdout, stderr or filepath)")
	flag.StringP("datadir", "d", defaultDatadirPath, "data directory for downloaded circuit artifacts")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "humanproof-prover v%s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: humanproof-prover [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables are also available with the same name as flags,\n")
		fmt.Fprintf(os.Stderr, "  except for dashes (-) and dots (.) which are replaced by underscores (_).\n")
		fmt.Fprintf(os.Stderr, "  For example, HUMANPROOF_WEB3_WALLET or HUMANPROOF_LOG_LEVEL\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Prove a capture against the production circuit\n")
		fmt.Fprintf(os.Stderr, "  humanproof-prover --image=frame.png --web3.wallet=0x123...\n\n")
		fmt.Fprintf(os.Stderr, "  # Use a first-transaction anchor from an explorer\n")
		fmt.Fprintf(os.Stderr, "  humanproof-prover --image=frame.png --web3.wallet=0x123... --web3.explorer=https://api.etherscan.io/api\n")
	}

	flag.CommandLine.SortFlags = false
	flag.Parse()

	v.SetEnvPrefix("HUMANPROOF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flag.CommandLine); err != nil {
		return nil, fmt.Errorf("error binding flags: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

// validateConfig validates the loaded configuration
func validateConfig(cfg *Config) error {
	if cfg.Image == "" {
		return fmt.Errorf("an image is required (use --image flag or HUMANPROOF_IMAGE environment variable)")
	}
	if _, ok := circuitVersions[cfg.Circuit.Version]; !ok {
		return fmt.Errorf("unknown circuit version %s, available versions: %v",
			cfg.Circuit.Version, availableVersionNames())
	}
	if cfg.Format != "json" && cfg.Format != "cbor" {
		return fmt.Errorf("unknown output format %s, available formats: json, cbor", cfg.Format)
	}
	return nil
}
