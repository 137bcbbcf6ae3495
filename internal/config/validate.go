package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%d validation error(s)", len(v.Problems))
}

func (c *Config) Validate() error {
	v := &ValidationError{}

	if c.ConfigVersion != 1 {
		v.Add("configVersion must be 1")
	}

	if strings.TrimSpace(c.Input.Dir) == "" {
		v.Add("input.dir is required")
	}
	if c.Input.Ext != "" && !strings.HasPrefix(c.Input.Ext, ".") {
		v.Add("input.ext must start with a dot")
	}

	if strings.TrimSpace(c.Output.Dir) == "" {
		v.Add("output.dir is required")
	} else if c.Input.Dir != "" && samePath(c.resolvePath(c.Input.Dir), c.resolvePath(c.Output.Dir)) {
		v.Add("output.dir must differ from input.dir")
	}

	if c.Fetch.Timeout <= 0 {
		v.Add("fetch.timeout must be > 0")
	}
	if c.Fetch.RateLimit.Enabled {
		if c.Fetch.RateLimit.RPS <= 0 {
			v.Add("fetch.rateLimit.rps must be > 0")
		}
		if c.Fetch.RateLimit.Burst <= 0 {
			v.Add("fetch.rateLimit.burst must be > 0")
		}
	}

	if c.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
			v.Add("logging.level invalid: %v", err)
		}
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		v.Add("logging.format must be console|json")
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB < 0 {
		v.Add("logging.maxSizeMB must be >= 0")
	}

	if c.Metrics.Textfile != "" && !strings.HasSuffix(c.Metrics.Textfile, ".prom") {
		v.Add("metrics.textfile must end in .prom")
	}

	if c.Publish.Enabled {
		if len(c.Publish.Command) == 0 || strings.TrimSpace(c.Publish.Command[0]) == "" {
			v.Add("publish.command is required when publish.enabled is true")
		}
		if c.Publish.Timeout <= 0 {
			v.Add("publish.timeout must be > 0")
		}
	}

	if len(v.Problems) > 0 {
		sort.Strings(v.Problems)
		return v
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
