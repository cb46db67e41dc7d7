package sand

import (
	"strconv"

	"sandfall/internal/core"
)

func (s *Sim) Parameters() core.ParameterSnapshot {
	cfg := s.engine.Config()
	st := s.engine.Stats()
	active, loaded := s.grid.Counts()
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				intParam("w", "Width", cfg.Width),
				intParam("h", "Height", cfg.Height),
				int64Param("seed", "Seed", cfg.Seed),
				floatParam("ambient", "Ambient temperature", float64(cfg.Ambient)),
			},
		},
		{
			Name: "Engine",
			Params: []core.Parameter{
				intParam("workers", "Workers", cfg.Workers),
				intParam("thermal_interval", "Thermal interval", cfg.ThermalInterval),
				floatParam("diffusion_rate", "Diffusion rate", float64(cfg.DiffusionRate)),
				boolParam("disable_dirty_skip", "Disable dirty skip", cfg.DisableDirtySkip),
			},
		},
		{
			Name: "Debris",
			Params: []core.Parameter{
				floatParam("gravity", "Gravity", cfg.Gravity),
				floatParam("terminal_velocity", "Terminal velocity", cfg.TerminalVelocity),
				floatParam("settle_epsilon", "Settle epsilon", cfg.SettleEpsilon),
			},
		},
		{
			Name: "Integrity",
			Params: []core.Parameter{
				intParam("integrity_radius", "Search radius", cfg.IntegrityRadius),
				intParam("particle_threshold", "Particle threshold", cfg.ParticleThreshold),
			},
		},
		{
			Name:    "Stats",
			Summary: "Cumulative since reset",
			Params: []core.Parameter{
				intParam("active_chunks", "Active chunks", active),
				intParam("loaded_chunks", "Loaded chunks", loaded),
				intParam("debris", "Falling bodies", len(s.engine.Debris())),
				uintParam("ticks", "Ticks", st.Ticks),
				intParam("moves", "Moves", st.Moves),
				intParam("reactions", "Reactions", st.Reactions),
				intParam("state_changes", "State changes", st.StateChanges),
				intParam("chunks_skipped", "Chunks skipped", st.ChunksSkipped),
				intParam("debris_dropped", "Dropped debris pixels", st.DebrisDropped),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the HUD-adjustable tunables.
func (s *Sim) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "workers", Label: "Workers", Type: core.ParamTypeInt, Step: 1, Min: 1, Max: 64, HasMin: true, HasMax: true},
		{Key: "thermal_interval", Label: "Thermal interval", Type: core.ParamTypeInt, Step: 1, Min: 0, Max: 60, HasMin: true, HasMax: true},
		{Key: "diffusion_rate", Label: "Diffusion rate", Type: core.ParamTypeFloat, Step: 0.01, Min: 0, Max: 0.25, HasMin: true, HasMax: true},
		{Key: "gravity", Label: "Gravity", Type: core.ParamTypeFloat, Step: 20, Min: 0, HasMin: true},
		{Key: "terminal_velocity", Label: "Terminal velocity", Type: core.ParamTypeFloat, Step: 20, Min: 1, HasMin: true},
		{Key: "integrity_radius", Label: "Search radius", Type: core.ParamTypeInt, Step: 8, Min: 1, Max: 512, HasMin: true, HasMax: true},
		{Key: "particle_threshold", Label: "Particle threshold", Type: core.ParamTypeInt, Step: 5, Min: 1, HasMin: true},
		{Key: "disable_dirty_skip", Label: "Disable dirty skip", Type: core.ParamTypeBool},
	}
}

// SetIntParameter updates an integer tunable. It reports false for unknown
// keys and out-of-range values.
func (s *Sim) SetIntParameter(key string, value int) bool {
	cfg := s.engine.Config()
	switch key {
	case "workers":
		cfg.Workers = value
	case "thermal_interval":
		cfg.ThermalInterval = value
	case "integrity_radius":
		cfg.IntegrityRadius = value
	case "particle_threshold":
		cfg.ParticleThreshold = value
	case "report_every":
		cfg.ReportEvery = value
	default:
		return false
	}
	return s.apply(cfg)
}

// SetFloatParameter updates a floating point tunable.
func (s *Sim) SetFloatParameter(key string, value float64) bool {
	cfg := s.engine.Config()
	switch key {
	case "diffusion_rate":
		cfg.DiffusionRate = float32(value)
	case "gravity":
		cfg.Gravity = value
	case "terminal_velocity":
		cfg.TerminalVelocity = value
	case "settle_epsilon":
		cfg.SettleEpsilon = value
	default:
		return false
	}
	return s.apply(cfg)
}

// SetBoolParameter toggles a boolean tunable.
func (s *Sim) SetBoolParameter(key string, value bool) bool {
	cfg := s.engine.Config()
	switch key {
	case "disable_dirty_skip":
		cfg.DisableDirtySkip = value
	default:
		return false
	}
	return s.apply(cfg)
}

func (s *Sim) apply(cfg Config) bool {
	if err := s.engine.SetConfig(cfg); err != nil {
		return false
	}
	s.cfg = cfg
	return true
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}

func uintParam(key, label string, value uint64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatUint(value, 10),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
}

func boolParam(key, label string, value bool) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeBool,
		Value: strconv.FormatBool(value),
	}
}
