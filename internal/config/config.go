package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "NOVELD"

type Config struct {
	Site    string `yaml:"site" mapstructure:"site"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	Novel           string  `yaml:"novel" mapstructure:"novel"`
	StartChapter    int     `yaml:"start_chapter" mapstructure:"start_chapter"`
	MaxChapters     int     `yaml:"max_chapters" mapstructure:"max_chapters"`
	Output          string  `yaml:"output" mapstructure:"output"`
	DelaySeconds    float64 `yaml:"delay_seconds" mapstructure:"delay_seconds"`
	CheckpointEvery int     `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`

	Debug    bool `yaml:"debug" mapstructure:"debug"`
	Progress bool `yaml:"progress" mapstructure:"progress"`

	Cookie     string `yaml:"cookie" mapstructure:"cookie"`
	CookieFile string `yaml:"cookie_file" mapstructure:"cookie_file"`
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	Cloudflare bool   `yaml:"cloudflare" mapstructure:"cloudflare"`
}

// Options are the command line values. Zero values mean "not set"; the
// pointer fields distinguish an explicit 0 from an absent flag.
type Options struct {
	IgnoreConfig bool
	Debug        bool

	Site    string
	BaseURL string

	Novel           string
	StartChapter    int
	MaxChapters     *int
	Output          string
	DelaySeconds    *float64
	CheckpointEvery int

	Cookie     string
	CookieFile string
	UserAgent  string
	Cloudflare bool
	NoProgress bool
}

func DefaultConfig() *Config {
	return &Config{
		Site:            "freewebnovel",
		BaseURL:         "",
		Novel:           "",
		StartChapter:    1,
		MaxChapters:     0,
		Output:          "",
		DelaySeconds:    1,
		CheckpointEvery: 5,
		Debug:           false,
		Progress:        true,
		Cookie:          "",
		CookieFile:      "",
		UserAgent:       "",
		Cloudflare:      false,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// newViper registers every key with its default so NOVELD_* environment
// variables apply even when the file does not mention the key.
func newViper() *viper.Viper {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("site", def.Site)
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("novel", def.Novel)
	v.SetDefault("start_chapter", def.StartChapter)
	v.SetDefault("max_chapters", def.MaxChapters)
	v.SetDefault("output", def.Output)
	v.SetDefault("delay_seconds", def.DelaySeconds)
	v.SetDefault("checkpoint_every", def.CheckpointEvery)
	v.SetDefault("debug", def.Debug)
	v.SetDefault("progress", def.Progress)
	v.SetDefault("cookie", def.Cookie)
	v.SetDefault("cookie_file", def.CookieFile)
	v.SetDefault("user_agent", def.UserAgent)
	v.SetDefault("cloudflare", def.Cloudflare)

	v.SetEnvPrefix(EnvPrefix) // e.g. NOVELD_DELAY_SECONDS=2
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// load reads path (if any) on top of the defaults and the environment.
func load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &c, nil
}

func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if errors.Is(err, ErrNoConfig) || activePath == "" {
		cfg, err := load("")
		if err != nil {
			return nil, "", err
		}
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `noveld config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := load(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Debug {
		c.Debug = true
	}
	if o.Site != "" {
		c.Site = o.Site
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.Novel != "" {
		c.Novel = o.Novel
	}
	if o.StartChapter != 0 {
		c.StartChapter = o.StartChapter
	}
	if o.MaxChapters != nil {
		c.MaxChapters = *o.MaxChapters
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.DelaySeconds != nil {
		c.DelaySeconds = *o.DelaySeconds
	}
	if o.CheckpointEvery != 0 {
		c.CheckpointEvery = o.CheckpointEvery
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Cloudflare {
		c.Cloudflare = true
	}
	if o.NoProgress {
		c.Progress = false
	}
}

func normalizeDefaults(c *Config) {
	c.Site = strings.ToLower(strings.TrimSpace(c.Site))
	if c.Site == "" {
		c.Site = "freewebnovel"
	}
	if c.StartChapter < 1 {
		c.StartChapter = 1
	}
	if c.MaxChapters < 0 {
		c.MaxChapters = 0
	}
	if c.DelaySeconds < 0 {
		c.DelaySeconds = 0
	}
	if c.CheckpointEvery <= 0 {
		c.CheckpointEvery = 5
	}
}

// OutputPath is the configured output, or "{slug}.epub" when unset.
func (c *Config) OutputPath(slug string) string {
	if strings.TrimSpace(c.Output) != "" {
		return c.Output
	}
	return slug + ".epub"
}

func (c *Config) Print() {
	fmt.Printf(" -site: %s\n", c.Site)
	if c.BaseURL != "" {
		fmt.Printf(" -base_url: %s\n", c.BaseURL)
	}
	if c.Novel != "" {
		fmt.Printf(" -novel: %s\n", c.Novel)
	}
	fmt.Printf(" -start_chapter: %d\n", c.StartChapter)
	fmt.Printf(" -max_chapters: %d\n", c.MaxChapters)
	if c.Output != "" {
		fmt.Printf(" -output: %s\n", c.Output)
	}
	fmt.Printf(" -delay_seconds: %g\n", c.DelaySeconds)
	fmt.Printf(" -checkpoint_every: %d\n", c.CheckpointEvery)
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	fmt.Printf(" -progress: %t\n", c.Progress)
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.UserAgent != "" {
		fmt.Printf(" -user_agent: %s\n", c.UserAgent)
	}
	if c.Cloudflare {
		fmt.Printf(" -cloudflare: %t\n", c.Cloudflare)
	}
}
