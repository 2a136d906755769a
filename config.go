package nvd

import (
	"os"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
)

// DriverConfig configures one driver instance. The zero value plus
// DefaultDriverConfig gives the environment-driven behaviour a client
// loading the driver normally would get.
type DriverConfig struct {
	// GPU is the device ordinal to decode on. -1 selects the default device.
	GPU int

	// MaxInstances caps concurrent driver instances process-wide.
	// 0 means unlimited.
	MaxInstances int

	// BackendName selects the backing-store strategy ("direct" or "egl").
	BackendName string

	// Supports16BitSurface and Supports444Surface gate the 10/12-bit and
	// 4:4:4 hardware paths during capability negotiation.
	Supports16BitSurface bool
	Supports444Surface   bool

	// API overrides the hardware decode interface. Nil loads the native
	// library bindings.
	API DecodeAPI

	// Backend overrides the backing-store backend. Nil selects by
	// BackendName.
	Backend Backend
}

// DefaultDriverConfig returns the configuration derived from the process
// environment: NVD_GPU, NVD_MAX_INSTANCES and NVD_BACKEND, read once per
// process.
func DefaultDriverConfig() DriverConfig {
	env := processEnv()
	return DriverConfig{
		GPU:                  env.gpu,
		MaxInstances:         env.maxInstances,
		BackendName:          env.backend,
		Supports16BitSurface: true,
		Supports444Surface:   true,
	}
}

type envConfig struct {
	gpu          int
	maxInstances int
	backend      string
	logDest      string
}

var (
	envOnce sync.Once
	envCfg  envConfig
)

// processEnv parses the driver environment exactly once per process.
func processEnv() envConfig {
	envOnce.Do(func() {
		envCfg.gpu = -1
		envCfg.backend = "direct"
		if v := os.Getenv("NVD_GPU"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				envCfg.gpu = n
			}
		}
		if v := os.Getenv("NVD_MAX_INSTANCES"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				envCfg.maxInstances = n
			}
		}
		if v := os.Getenv("NVD_BACKEND"); v != "" {
			switch v {
			case "direct", "egl":
				envCfg.backend = v
			}
		}
		envCfg.logDest = os.Getenv("NVD_LOG")
	})
	return envCfg
}

var (
	logOnce sync.Once
	baseLog zerolog.Logger
)

// baseLogger initialises the package logger once, from NVD_LOG: unset
// disables logging entirely, "1" logs to stdout, any other value appends to
// the named file (falling back to stdout if it cannot be opened). Logging is
// best-effort and never a failure path.
func baseLogger() zerolog.Logger {
	logOnce.Do(func() {
		env := processEnv()
		if env.logDest == "" {
			baseLog = zerolog.Nop()
			return
		}
		out := os.Stdout
		if env.logDest != "1" {
			if f, err := os.OpenFile(env.logDest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				out = f
			}
		}
		baseLog = zerolog.New(out).With().
			Timestamp().
			Int("pid", os.Getpid()).
			Logger()
	})
	return baseLog
}

// componentLogger returns a child logger annotated with the component name.
func componentLogger(component string) zerolog.Logger {
	return baseLogger().With().Str("component", component).Logger()
}
