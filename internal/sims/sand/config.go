package sand

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	rng "sandfall/pkg/core"
)

// ErrConfig marks an invalid engine configuration.
var ErrConfig = errors.New("sand: invalid config")

// Config controls the engine and, for the viewer, the viewport it shows.
type Config struct {
	// Width and Height size the viewer's viewport in pixels.
	Width  int `toml:"width"`
	Height int `toml:"height"`

	Seed    int64 `toml:"seed"`
	Workers int   `toml:"workers"`

	// ThermalInterval runs the temperature layer every n-th tick.
	ThermalInterval int `toml:"thermal_interval"`
	// DiffusionRate scales heat exchange between coarse cells; at most 0.25.
	DiffusionRate float32 `toml:"diffusion_rate"`
	Ambient       float32 `toml:"ambient"`

	// Debris kinematics in pixels and seconds.
	Gravity          float64 `toml:"gravity"`
	TerminalVelocity float64 `toml:"terminal_velocity"`
	SettleEpsilon    float64 `toml:"settle_epsilon"`

	IntegrityRadius   int `toml:"integrity_radius"`
	ParticleThreshold int `toml:"particle_threshold"`

	// DisableDirtySkip scans every active pixel every tick. Results are
	// identical; it exists for diagnostics and tests.
	DisableDirtySkip bool `toml:"disable_dirty_skip"`

	// ReportEvery logs a stats report every n ticks; 0 disables reports.
	ReportEvery int `toml:"report_every"`

	// MaterialsFile optionally replaces the built-in material table.
	MaterialsFile string `toml:"materials_file"`

	Logger *slog.Logger `toml:"-"`
	// NewStream builds the random stream of each chunk job. Nil uses
	// rng.NewRNG.
	NewStream func() rng.Stream `toml:"-"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	return Config{
		Width:             256,
		Height:            192,
		Seed:              1337,
		Workers:           workers,
		ThermalInterval:   2,
		DiffusionRate:     0.2,
		Ambient:           20,
		Gravity:           240,
		TerminalVelocity:  480,
		SettleEpsilon:     1,
		IntegrityRadius:   64,
		ParticleThreshold: 50,
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Malformed values are ignored.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	setInt := func(key string, dst *int, minimum int) {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.Atoi(v); err == nil && parsed >= minimum {
				*dst = parsed
			}
		}
	}
	setFloat := func(key string, dst *float64) {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
				*dst = parsed
			}
		}
	}
	setFloat32 := func(key string, dst *float32) {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.ParseFloat(v, 32); err == nil {
				*dst = float32(parsed)
			}
		}
	}

	setInt("w", &c.Width, 1)
	setInt("h", &c.Height, 1)
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	setInt("workers", &c.Workers, 1)
	setInt("thermal_interval", &c.ThermalInterval, 0)
	setFloat32("diffusion_rate", &c.DiffusionRate)
	setFloat32("ambient", &c.Ambient)
	setFloat("gravity", &c.Gravity)
	setFloat("terminal_velocity", &c.TerminalVelocity)
	setFloat("settle_epsilon", &c.SettleEpsilon)
	setInt("integrity_radius", &c.IntegrityRadius, 1)
	setInt("particle_threshold", &c.ParticleThreshold, 1)
	setInt("report_every", &c.ReportEvery, 0)
	if v, ok := cfg["disable_dirty_skip"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.DisableDirtySkip = parsed
		}
	}
	if v, ok := cfg["materials"]; ok {
		c.MaterialsFile = v
	}
	return c
}

// LoadConfigFile decodes a TOML file on top of DefaultConfig.
func LoadConfigFile(path string) (Config, error) {
	c := DefaultConfig()
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: %s: unknown keys %s", ErrConfig, path, strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every out-of-range field.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...)))
	}
	if c.Width <= 0 || c.Height <= 0 {
		bad("viewport %dx%d must be positive", c.Width, c.Height)
	}
	if c.Workers < 1 {
		bad("workers must be at least 1, got %d", c.Workers)
	}
	if c.ThermalInterval < 0 {
		bad("thermal interval must not be negative, got %d", c.ThermalInterval)
	}
	if c.DiffusionRate < 0 || c.DiffusionRate > 0.25 {
		bad("diffusion rate %v outside [0,0.25]", c.DiffusionRate)
	}
	if c.Gravity < 0 {
		bad("gravity must not be negative, got %v", c.Gravity)
	}
	if c.TerminalVelocity <= 0 {
		bad("terminal velocity must be positive, got %v", c.TerminalVelocity)
	}
	if c.SettleEpsilon <= 0 {
		bad("settle epsilon must be positive, got %v", c.SettleEpsilon)
	}
	if c.IntegrityRadius < 1 {
		bad("integrity radius must be at least 1, got %d", c.IntegrityRadius)
	}
	if c.ParticleThreshold < 1 {
		bad("particle threshold must be at least 1, got %d", c.ParticleThreshold)
	}
	if c.ReportEvery < 0 {
		bad("report interval must not be negative, got %d", c.ReportEvery)
	}
	return errors.Join(errs...)
}
