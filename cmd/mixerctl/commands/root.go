package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/loamforge/mixer/pkg/mixer"
)

var (
	flagConfigPath string
	flagVerbose    bool

	// sessionID tags every log line from this process run, for correlating
	// output across a single invocation the way this family of CLI tools
	// tags API requests.
	sessionID = uuid.New().String()

	globalConfig *mixer.Config
	configErr    error
)

var rootCmd = &cobra.Command{
	Use:   "mixerctl",
	Short: "Reference client and device adapter for the mixer",
	Long: `mixerctl drives pkg/mixer from the command line.

Commands:
  play    play one sound file through an offline render and report timing
  live    open a PortAudio output stream and drive a live Mixdown from it
  config  show or edit the on-disk configuration

Examples:
  mixerctl play sounds/explosion.pcm
  mixerctl live --rate 48000 --bufsize 1024
  mixerctl config show`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to config.yaml (default: per-user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	cfg, err := mixer.LoadConfigWithPath("mixerctl", flagConfigPath)
	if err != nil {
		configErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the process-wide configuration, loading it on demand if
// the cobra.OnInitialize hook has not yet run (e.g. in tests).
func GetConfig() (*mixer.Config, error) {
	if globalConfig == nil {
		if configErr != nil {
			return nil, fmt.Errorf("config not available: %w", configErr)
		}
		cfg, err := mixer.LoadConfigWithPath("mixerctl", flagConfigPath)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// logger returns a mixer.Logger tagged with this process's session ID.
func logger() mixer.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return mixer.SlogLogger(slog.New(h).With("session", sessionID))
}
