package app

import "flag"

// Config represents the command-line parameters for the application.
type Config struct {
	Sim      string
	Scale    int
	TPS      int
	Seed     int64
	HUDWidth int
	Brush    int
	Params   map[string]string
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Sim: "sand", Scale: 3, TPS: 60, Seed: 42, HUDWidth: 280, Brush: 3, Params: map[string]string{}}
}

// Bind attaches the configuration to the provided FlagSet. Repeated -p k=v
// flags are forwarded to the sim factory.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation to run")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for simulation reset")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "parameter panel width in pixels (0 hides it)")
	fs.IntVar(&c.Brush, "brush", c.Brush, "initial brush radius")
	fs.Func("p", "sim parameter as key=value (repeatable)", func(s string) error {
		k, v, ok := cutParam(s)
		if !ok {
			return errParam
		}
		c.Params[k] = v
		return nil
	})
}
