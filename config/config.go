// Package config collects the parameters of a run from defaults, a YAML
// file, the environment and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sarchlab/partsim/timing"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables that configure a run, as in
// PARTSIM_BANDWIDTH.
const EnvPrefix = "PARTSIM"

// Keys of the configuration values. Flags carry the same names.
const (
	KeyConfigFile       = "config"
	KeyDependencies     = "dependencies"
	KeyProfiles         = "profiles"
	KeyDevices          = "devices"
	KeyBandwidth        = "bandwidth"
	KeyPriorities       = "priorities"
	KeyPartition        = "partition"
	KeyIgnoreLatency    = "ignore-latency"
	KeyDetailed         = "detailed"
	KeyFeedbackInterval = "feedback-interval"
	KeyWorkers          = "workers"
	KeyTraceFile        = "trace-file"
	KeyRecordFile       = "record-file"
	KeyRecord           = "record"
	KeyMonitor          = "monitor"
	KeyMonitorPort      = "monitor-port"
	KeyOpenBrowser      = "open-browser"
	KeyVerbosity        = "verbosity"
)

// Config holds everything a run needs.
type Config struct {
	DependencySource string
	ProfileSources   []string
	DeviceNames      []string
	Bandwidth        float64
	PrioritySource   string
	PartitionSource  string
	IgnoreLatency    bool
	Detailed         bool
	FeedbackInterval float64
	NumWorkers       int

	// TraceFile enables the CSV layer trace. The ".csv" extension is added.
	TraceFile string

	// Record enables the SQLite recorder; RecordFile names it.
	Record     bool
	RecordFile string

	Monitor     bool
	MonitorPort int
	OpenBrowser bool

	Verbosity int
}

// RegisterFlags adds a flag for every configuration key.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(KeyConfigFile, "", "YAML configuration file")
	flags.StringP(KeyDependencies, "d", "", "layer dependency CSV file")
	flags.StringSliceP(KeyProfiles, "p", nil,
		"device profile CSV files, one per device; the first one is the baseline")
	flags.StringSlice(KeyDevices, nil, "device names, one per profile")
	flags.Float64P(KeyBandwidth, "b", timing.DefaultBandwidth,
		"transfer bandwidth in bytes per second")
	flags.String(KeyPriorities, "", "layer priority CSV file")
	flags.String(KeyPartition, "", "layer to device partition CSV file")
	flags.Bool(KeyIgnoreLatency, false, "ignore transfer latency")
	flags.Bool(KeyDetailed, false, "print every evaluated assignment")
	flags.Float64(KeyFeedbackInterval, 0.1,
		"fraction of the search space between progress reports")
	flags.Int(KeyWorkers, runtime.GOMAXPROCS(0), "number of search workers")
	flags.String(KeyTraceFile, "", "write the layer trace to this CSV file")
	flags.Bool(KeyRecord, false, "record results into a SQLite database")
	flags.String(KeyRecordFile, "", "name of the SQLite database")
	flags.Bool(KeyMonitor, false, "serve the monitor while running")
	flags.Int(KeyMonitorPort, 0, "monitor port, random when 0")
	flags.Bool(KeyOpenBrowser, false, "open the monitor in a browser")
	flags.IntP(KeyVerbosity, "v", 0, "log verbosity")
}

// Load reads the configuration. Values in a .env file in the working
// directory become environment variables unless already set.
func Load(flags *pflag.FlagSet) (*Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}

	return LoadWith(viper.New(), flags)
}

// LoadWith reads the configuration through a given viper instance.
func LoadWith(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", file, err)
		}
	}

	return &Config{
		DependencySource: v.GetString(KeyDependencies),
		ProfileSources:   v.GetStringSlice(KeyProfiles),
		DeviceNames:      v.GetStringSlice(KeyDevices),
		Bandwidth:        v.GetFloat64(KeyBandwidth),
		PrioritySource:   v.GetString(KeyPriorities),
		PartitionSource:  v.GetString(KeyPartition),
		IgnoreLatency:    v.GetBool(KeyIgnoreLatency),
		Detailed:         v.GetBool(KeyDetailed),
		FeedbackInterval: v.GetFloat64(KeyFeedbackInterval),
		NumWorkers:       v.GetInt(KeyWorkers),
		TraceFile:        v.GetString(KeyTraceFile),
		Record:           v.GetBool(KeyRecord),
		RecordFile:       v.GetString(KeyRecordFile),
		Monitor:          v.GetBool(KeyMonitor),
		MonitorPort:      v.GetInt(KeyMonitorPort),
		OpenBrowser:      v.GetBool(KeyOpenBrowser),
		Verbosity:        v.GetInt(KeyVerbosity),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBandwidth, timing.DefaultBandwidth)
	v.SetDefault(KeyFeedbackInterval, 0.1)
	v.SetDefault(KeyWorkers, runtime.GOMAXPROCS(0))
}

// Validate checks the parts of the configuration every command needs.
func (c *Config) Validate() error {
	if c.DependencySource == "" {
		return errors.New("config: no dependency file given")
	}

	if len(c.ProfileSources) == 0 {
		return errors.New("config: no profile file given")
	}

	if len(c.DeviceNames) > 0 && len(c.DeviceNames) != len(c.ProfileSources) {
		return fmt.Errorf("config: %d device names for %d profiles",
			len(c.DeviceNames), len(c.ProfileSources))
	}

	if math.IsNaN(c.Bandwidth) || c.Bandwidth <= 0 {
		return &timing.InvalidBandwidthError{Bandwidth: c.Bandwidth}
	}

	if c.FeedbackInterval <= 0 || c.FeedbackInterval > 1 {
		return fmt.Errorf("config: feedback interval %v is not in (0, 1]",
			c.FeedbackInterval)
	}

	if c.NumWorkers < 1 {
		return fmt.Errorf("config: %d workers", c.NumWorkers)
	}

	return nil
}

// ValidateForSimulate also requires a partition file.
func (c *Config) ValidateForSimulate() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.PartitionSource == "" {
		return errors.New("config: no partition file given")
	}

	return nil
}
