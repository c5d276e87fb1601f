package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDataPath   = "data-path"
	ConfigVariant    = "variant"
	ConfigMode       = "mode"
	ConfigTolerance  = "tolerance"
	ConfigMaxSweeps  = "max-sweeps"
	ConfigThreads    = "threads"
	ConfigSimGames   = "sim-games"
	ConfigSimSeed    = "sim-seed"
	ConfigSimStop    = "sim-stop"
	ConfigDebug      = "debug"
	ConfigCPUProfile = "cpu-profile"
	ConfigMemProfile = "mem-profile"
)

// Config is the program configuration: defaults, overridden by an optional
// config.yaml, then YAHTZEE_* environment variables, then flags.
type Config struct {
	viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigDataPath, "./data")
	v.SetDefault(ConfigVariant, "reduced")
	v.SetDefault(ConfigMode, "topological")
	v.SetDefault(ConfigTolerance, 1e-6)
	v.SetDefault(ConfigMaxSweeps, 200)
	v.SetDefault(ConfigThreads, runtime.NumCPU())
	v.SetDefault(ConfigSimGames, 10000)
	v.SetDefault(ConfigSimSeed, 0)
	v.SetDefault(ConfigSimStop, "none")
	v.SetDefault(ConfigDebug, false)
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("yahtzee", pflag.ContinueOnError)
	fs.String(ConfigDataPath, "./data", "directory holding solved tables")
	fs.String(ConfigVariant, "reduced", "rule variant: reduced (7 categories) or full (13)")
	fs.String(ConfigMode, "topological", "solve mode: topological or sweep")
	fs.Float64(ConfigTolerance, 1e-6, "sweep mode stops once no value changes by more than this")
	fs.Int(ConfigMaxSweeps, 200, "sweep cap; 0 for none")
	fs.Int(ConfigThreads, runtime.NumCPU(), "worker threads")
	fs.Int(ConfigSimGames, 10000, "games per simulation")
	fs.Uint64(ConfigSimSeed, 0, "simulation seed; 0 for random")
	fs.String(ConfigSimStop, "none", "simulation stopping condition: none, 95, 98 or 99")
	fs.Bool(ConfigDebug, false, "debug logging")
	fs.String(ConfigCPUProfile, "", "write a CPU profile here")
	fs.String(ConfigMemProfile, "", "write a heap profile here")
	return fs
}

// Load reads the configuration. Arguments that are not flags are left for
// the caller; see Args.
func (c *Config) Load(args []string) error {
	c.Viper = *viper.New()
	setDefaults(&c.Viper)
	c.SetConfigName("config")
	c.SetConfigType("yaml")
	c.AddConfigPath(".")
	c.SetEnvPrefix("yahtzee")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if err := c.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.Set("args", fs.Args())
	return nil
}

// Args are the positional arguments left over after flags.
func (c *Config) Args() []string {
	return c.GetStringSlice("args")
}

// DefaultConfig is the configuration with nothing overridden.
func DefaultConfig() *Config {
	c := &Config{Viper: *viper.New()}
	setDefaults(&c.Viper)
	return c
}

// AdjustRelativePaths resolves a relative data path against basepath (the
// executable's directory) unless it exists relative to the working
// directory.
func (c *Config) AdjustRelativePaths(basepath string) {
	p := c.GetString(ConfigDataPath)
	if filepath.IsAbs(p) {
		return
	}
	if _, err := os.Stat(p); err == nil {
		return
	}
	abs := filepath.Join(basepath, p)
	log.Debug().Str("from", p).Str("to", abs).Msg("adjusted-data-path")
	c.Set(ConfigDataPath, abs)
}

// SanitizedSettings is every setting, for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
