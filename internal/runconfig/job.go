package runconfig

import (
	"github.com/spf13/viper"
)

// JobConfig describes one run request: the script to execute, how many
// replicates to run, and the overrides a CLI invocation may apply on
// top of the script's own declared grid/step ranges.
type JobConfig struct {
	ScriptPath        string `mapstructure:"script_path"`
	Replicates        int    `mapstructure:"replicates"`
	BaseSeed          int64  `mapstructure:"base_seed"`
	GridSizeOverride  int    `mapstructure:"grid_size_override"`
	StepsLowOverride  int    `mapstructure:"steps_low_override"`
	StepsHighOverride int    `mapstructure:"steps_high_override"`
	Output            string `mapstructure:"output"`
	Threads           int    `mapstructure:"threads"`
}

// DefaultJobConfig returns the baseline a fresh JobConfig starts from
// before a descriptor file or CLI flags are layered on top.
func DefaultJobConfig() JobConfig {
	return JobConfig{
		Replicates: 1,
		BaseSeed:   0,
		Output:     "stdout",
		Threads:    1,
	}
}

// LoadJobConfig layers a YAML job descriptor at path (if non-empty)
// over DefaultJobConfig using viper, the way the teacher's config
// loading layers file, env, and default sources.
func LoadJobConfig(path string) (JobConfig, error) {
	cfg := DefaultJobConfig()

	v := viper.New()
	v.SetDefault("replicates", cfg.Replicates)
	v.SetDefault("base_seed", cfg.BaseSeed)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("threads", cfg.Threads)
	v.SetEnvPrefix("JOSH")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
