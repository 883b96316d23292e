package simworld

import "fmt"

// NetworkType selects the topology-construction algorithm (spec §4.3).
type NetworkType uint8

const (
	NetworkScaleFree NetworkType = iota
	NetworkSmallWorld
	NetworkRandom
	NetworkGeoLocal
)

func (n NetworkType) String() string {
	switch n {
	case NetworkScaleFree:
		return "scale_free"
	case NetworkSmallWorld:
		return "small_world"
	case NetworkRandom:
		return "random"
	case NetworkGeoLocal:
		return "geo_local"
	default:
		return "unknown"
	}
}

// ParseNetworkType maps the wire-exact enum strings from spec §6.
func ParseNetworkType(s string) (NetworkType, error) {
	switch s {
	case "scale_free":
		return NetworkScaleFree, nil
	case "small_world":
		return NetworkSmallWorld, nil
	case "random":
		return NetworkRandom, nil
	case "geo_local":
		return NetworkGeoLocal, nil
	default:
		return 0, fmt.Errorf("%w: unknown network_type %q", ErrInvalidInput, s)
	}
}

// Status is a World's lifecycle state (spec §3).
type Status uint8

const (
	StatusCreated Status = iota
	StatusRunning
	StatusPaused
	StatusCompleted
	StatusArchived
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "CREATED"
	case StatusRunning:
		return "RUNNING"
	case StatusPaused:
		return "PAUSED"
	case StatusCompleted:
		return "COMPLETED"
	case StatusArchived:
		return "ARCHIVED"
	default:
		return "UNKNOWN"
	}
}

// Config is the declarative world configuration from spec §3.
type Config struct {
	PopulationSize int // [100, 100000]
	NetworkType    NetworkType
	NetworkDensity float64 // [0.01, 1.0]
	MutationRate   float64 // [0, 1]
	DecayRate      float64 // [0, 1]
	TimeStepMs     int     // [10, 10000]
	MaxSteps       *int    // optional

	Regions       []string  // subset of the region catalog names; empty = all
	RegionWeights []float64 // parallel to Regions when provided
}

// Validate enforces the wire-exact ranges from spec §6, returning
// ErrInvalidInput-wrapped errors describing the first violation found.
func (c Config) Validate() error {
	if c.PopulationSize < 100 || c.PopulationSize > 100000 {
		return fmt.Errorf("%w: population_size must be in [100, 100000], got %d", ErrInvalidInput, c.PopulationSize)
	}
	if c.NetworkDensity < 0.01 || c.NetworkDensity > 1.0 {
		return fmt.Errorf("%w: network_density must be in [0.01, 1.0], got %f", ErrInvalidInput, c.NetworkDensity)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("%w: mutation_rate must be in [0, 1], got %f", ErrInvalidInput, c.MutationRate)
	}
	if c.DecayRate < 0 || c.DecayRate > 1 {
		return fmt.Errorf("%w: decay_rate must be in [0, 1], got %f", ErrInvalidInput, c.DecayRate)
	}
	if c.TimeStepMs < 10 || c.TimeStepMs > 10000 {
		return fmt.Errorf("%w: time_step_ms must be in [10, 10000], got %d", ErrInvalidInput, c.TimeStepMs)
	}
	if c.MaxSteps != nil && *c.MaxSteps <= 0 {
		return fmt.Errorf("%w: max_steps must be positive when set", ErrInvalidInput)
	}
	if len(c.RegionWeights) != 0 && len(c.RegionWeights) != len(c.Regions) {
		return fmt.Errorf("%w: region_weights must be parallel to regions", ErrInvalidInput)
	}
	return nil
}
