package config

import (
	"fmt"
	"os"

	"github.com/go-yaml/yaml"
)

const (
	// DtMax is the longest simulated duration of a single physics tick.
	// Frames covering more simulated time than this are stepped in DtMax
	// increments.
	DtMax = 1.0 / 60.0

	// MaxFrameCatchup bounds the worst-case burst of simulated time a single
	// frame may cover, in units of DtMax, e.g. after a stalled host clock.
	MaxFrameCatchup = 3

	// Epsilon guards divisions by elapsed time at the start of a run.
	Epsilon = 1e-9

	DefaultCapacity  = 4
	DefaultSpawnRate = 0.5
	DefaultSpeed     = 2.0
	DefaultTimeScale = 1.0
)

// ChallengeSpec selects and parameterizes an end condition. Kind is one of
// within-time, max-wait-time, within-time-and-max-wait, within-moves,
// perpetual.
type ChallengeSpec struct {
	Kind      string  `yaml:"Kind"`
	Target    int     `yaml:"Target"`
	TimeLimit float64 `yaml:"TimeLimit"`
	MaxWait   float64 `yaml:"MaxWait"`
	MoveLimit int     `yaml:"MoveLimit"`
}

// Config holds the initialization parameters of one simulation run.
type Config struct {
	FloorCount         int           `yaml:"FloorCount"`
	ElevatorCount      int           `yaml:"ElevatorCount"`
	ElevatorCapacities []int         `yaml:"ElevatorCapacities"`
	SpawnRate          float64       `yaml:"SpawnRate"`
	SpeedFloorsPerSec  float64       `yaml:"SpeedFloorsPerSec"`
	Challenge          ChallengeSpec `yaml:"Challenge"`
}

// ValidationError reports an invalid initialization parameter. It is fatal:
// the engine stays idle when initialization fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// Validate checks every initialization parameter and fills in per-elevator
// capacity defaults.
func (c *Config) Validate() error {
	if c.FloorCount < 2 {
		return &ValidationError{Field: "FloorCount", Reason: "must be at least 2"}
	}
	if c.ElevatorCount < 1 {
		return &ValidationError{Field: "ElevatorCount", Reason: "must be at least 1"}
	}
	if c.SpawnRate <= 0 {
		return &ValidationError{Field: "SpawnRate", Reason: "must be positive"}
	}
	if c.SpeedFloorsPerSec <= 0 {
		return &ValidationError{Field: "SpeedFloorsPerSec", Reason: "must be positive"}
	}
	if len(c.ElevatorCapacities) == 0 {
		c.ElevatorCapacities = make([]int, c.ElevatorCount)
		for i := range c.ElevatorCapacities {
			c.ElevatorCapacities[i] = DefaultCapacity
		}
	}
	if len(c.ElevatorCapacities) != c.ElevatorCount {
		return &ValidationError{Field: "ElevatorCapacities", Reason: "length must match ElevatorCount"}
	}
	for i, cap := range c.ElevatorCapacities {
		if cap < 1 {
			return &ValidationError{Field: fmt.Sprintf("ElevatorCapacities[%d]", i), Reason: "must be positive"}
		}
	}
	return nil
}

// Load reads and validates a challenge configuration from a YAML file.
func Load(path string) (Config, error) {
	c := Config{}
	file, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(&c); err != nil {
		return c, fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Demo returns the built-in configuration used when no challenge file is
// given: a small building with an open-ended run.
func Demo() Config {
	return Config{
		FloorCount:        6,
		ElevatorCount:     2,
		SpawnRate:         DefaultSpawnRate,
		SpeedFloorsPerSec: DefaultSpeed,
		Challenge:         ChallengeSpec{Kind: "perpetual"},
	}
}
