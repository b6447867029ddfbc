package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynvec/internal/vector"
)

const (
	DefaultPolicy     = "double"
	DefaultDataDir    = ".dynvec"
	DefaultLogLevel   = "info"
	DefaultBenchCount = 10000
	DefaultFaultSize  = 10
	DefaultWorkers    = 4
)

type Config struct {
	DataDir  string       `yaml:"data_dir"`
	LogLevel string       `yaml:"log_level"`
	Growth   GrowthConfig `yaml:"growth"`
	Bench    BenchConfig  `yaml:"bench"`
	Faults   FaultConfig  `yaml:"faults"`
}

// GrowthConfig selects the policy used when a push finds the vector full.
// Name is a preset; Factor and MinStep override it when set.
type GrowthConfig struct {
	Name    string  `yaml:"name"`
	Factor  float64 `yaml:"factor"`
	MinStep int     `yaml:"min_step"`
}

type BenchConfig struct {
	Count    int      `yaml:"count"`
	Policies []string `yaml:"policies"`
}

type FaultConfig struct {
	Size    int  `yaml:"size"`
	Workers int  `yaml:"workers"`
	Panic   bool `yaml:"panic"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:  DefaultDataDir,
		LogLevel: DefaultLogLevel,
		Growth: GrowthConfig{
			Name: DefaultPolicy,
		},
		Bench: BenchConfig{
			Count:    DefaultBenchCount,
			Policies: []string{"double", "golden", "gentle"},
		},
		Faults: FaultConfig{
			Size:    DefaultFaultSize,
			Workers: DefaultWorkers,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := c.Growth.Policy(); err != nil {
		return err
	}
	if c.Bench.Count <= 0 {
		return fmt.Errorf("bench count must be positive, got %d", c.Bench.Count)
	}
	if c.Faults.Size < 1 {
		return fmt.Errorf("fault sweep size must be positive, got %d", c.Faults.Size)
	}
	if c.Faults.Workers <= 0 {
		return fmt.Errorf("fault sweep workers must be positive, got %d", c.Faults.Workers)
	}
	return nil
}

// Policy resolves the configured growth policy.
func (g GrowthConfig) Policy() (vector.Geometric, error) {
	base := GrowthConfig{Factor: g.Factor, MinStep: g.MinStep}
	if g.Name != "" {
		preset := GetPreset(g.Name)
		if preset == nil {
			return vector.Geometric{}, fmt.Errorf("unknown growth policy: %s (available: %v)", g.Name, ListPresets())
		}
		base = *preset
		if g.Factor != 0 {
			base.Factor = g.Factor
		}
		if g.MinStep != 0 {
			base.MinStep = g.MinStep
		}
	}
	return vector.NewGeometric(base.Factor, base.MinStep)
}
