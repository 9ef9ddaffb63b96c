package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-plagio/cache"
	"github.com/RyanBlaney/sonido-plagio/detector"
	"github.com/RyanBlaney/sonido-plagio/logging"
	"github.com/RyanBlaney/sonido-plagio/settings"
)

var (
	// Global flags
	configPath string
	verbose    bool

	appSettings *settings.Settings
)

var rootCmd = &cobra.Command{
	Use:   "sonido-plagio",
	Short: "Audio plagiarism detection",
	Long: `sonido-plagio - compares audio clips by timbre, pitch-class, brightness
and energy statistics and flags pairs that score above the plagiarism
threshold.

Settings are read from sonido-plagio.yaml in the working directory, or from
the file given with --config.

Examples:
  sonido-plagio compare original.wav suspect.mp3
  sonido-plagio batch reference.wav candidates/*.wav
  sonido-plagio serve --addr :5000`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initApp,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "settings file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initApp(cmd *cobra.Command, _ []string) error {
	s, err := settings.Load(configPath)
	if err != nil {
		return err
	}
	appSettings = s

	logger := logging.NewDefaultLoggerWithWriters(cmd.ErrOrStderr(), cmd.ErrOrStderr())
	level := s.Level()
	if verbose {
		level = logging.DebugLevel
	}
	logger.SetLevel(level)
	logging.SetGlobalLogger(logger)
	return nil
}

// newDetector builds a detector from the loaded settings. The returned
// cleanup closes the cache when one was opened.
func newDetector() (*detector.Detector, func(), error) {
	s := appSettings
	if s == nil {
		s = settings.Default()
	}

	opts := detector.Options{
		Features:   s.FeatureConfig(),
		Comparison: s.ComparisonConfig(),
		Decoder:    s.DecoderConfig(),
	}

	cleanup := func() {}
	if s.Cache.Enabled {
		if err := os.MkdirAll(s.Cache.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		store, err := cache.Open(cache.Options{Dir: s.Cache.Dir, TTL: s.Cache.TTL.Std()})
		if err != nil {
			return nil, nil, err
		}
		opts.Cache = store
		cleanup = func() {
			if err := store.Close(); err != nil {
				logging.Error(err, "Failed to close fingerprint cache")
			}
		}
	}

	det, err := detector.New(opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return det, cleanup, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
