package config

import "time"

type Config struct {
	ConfigVersion    int           `yaml:"configVersion"`
	Input            InputConfig   `yaml:"input"`
	Output           OutputConfig  `yaml:"output"`
	Fetch            FetchConfig   `yaml:"fetch"`
	ExpandDomainSets bool          `yaml:"expandDomainSets"`
	Logging          LoggingConfig `yaml:"logging"`
	Metrics          MetricsConfig `yaml:"metrics"`
	Publish          PublishConfig `yaml:"publish"`

	baseDir string `yaml:"-"`
}

type InputConfig struct {
	Dir string `yaml:"dir"`
	Ext string `yaml:"ext"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type FetchConfig struct {
	Timeout   time.Duration   `yaml:"timeout"`
	UserAgent string          `yaml:"userAgent"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

type PublishConfig struct {
	Enabled bool          `yaml:"enabled"`
	Command []string      `yaml:"command"`
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file is given: expand
// custom/*.list into output/.
func Default() *Config {
	return &Config{
		ConfigVersion:    1,
		Input:            InputConfig{Dir: "custom", Ext: ".list"},
		Output:           OutputConfig{Dir: "output"},
		Fetch:            FetchConfig{Timeout: 30 * time.Second, UserAgent: "rulexpand/1.0"},
		ExpandDomainSets: true,
		Logging:          LoggingConfig{Level: "info", Format: "console", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28},
		Publish:          PublishConfig{Timeout: 60 * time.Second},
	}
}

func (c *Config) BaseDir() string {
	return c.baseDir
}

func (c *Config) ResolvePath(path string) string {
	return c.resolvePath(path)
}
