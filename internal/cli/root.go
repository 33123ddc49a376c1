package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/ppiankov/itinera/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
	logJSON bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "itinera",
	Short: "Itinera - travel booking documents to agency data-entry screens",
	Long: `Itinera reads travel booking documents (PDF invoices, e-tickets, confirmation
emails, plain text) and turns them into the structured sections of an agency's
data-entry screens: flights, tours, hotels, cruises, insurance, rail, traveller
profiles and the planning fee.

Extraction is best effort. Every section should be reviewed before it is keyed in.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(os.Stderr)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "itinera %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.itinera/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON instead of text")

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".itinera"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// ITINERA_PIPELINE_PACING_DELAY=0s overrides pipeline.pacing_delay
	viper.SetEnvPrefix("ITINERA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnv(viper.GetViper(), "", reflect.TypeOf(model.Config{}))

	if err := viper.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}
}

// bindEnv registers every config key so AutomaticEnv also reaches keys no file sets
func bindEnv(v *viper.Viper, prefix string, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := f.Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		if f.Type.Kind() == reflect.Struct {
			bindEnv(v, key, f.Type)
			continue
		}
		_ = v.BindEnv(key)
	}
}

// loadConfig layers the config file, environment and bound flags over the defaults
func loadConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// setupLogging installs the process-wide slog handler
func setupLogging(w *os.File) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if logJSON {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
