package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/blurface/pkg/blur"
	"github.com/menta2k/blurface/pkg/compositor"
	"github.com/menta2k/blurface/pkg/processing"
	"github.com/menta2k/blurface/pkg/rating"
	"github.com/menta2k/blurface/pkg/session"
)

// Config holds the application configuration
type Config struct {
	Editor EditorConfig `json:"editor" yaml:"editor"`
	Render RenderConfig `json:"render" yaml:"render"`
	Input  InputConfig  `json:"input" yaml:"input"`
	Output OutputConfig `json:"output" yaml:"output"`
	Rating RatingConfig `json:"rating" yaml:"rating"`
}

// EditorConfig holds shape defaults for the editing session
type EditorConfig struct {
	MinShapeSize       float64 `json:"min_shape_size" yaml:"min_shape_size"`
	DefaultShapeWidth  float64 `json:"default_shape_width" yaml:"default_shape_width"`
	DefaultShapeHeight float64 `json:"default_shape_height" yaml:"default_shape_height"`
}

// RenderConfig holds configuration for export compositing
type RenderConfig struct {
	BlurBackend  string  `json:"blur_backend" yaml:"blur_backend"`
	BlurRadius   float64 `json:"blur_radius" yaml:"blur_radius"`
	MaxDimension int     `json:"max_dimension" yaml:"max_dimension"`
	AntiAlias    bool    `json:"anti_alias" yaml:"anti_alias"`
}

// InputConfig holds configuration for image loading
type InputConfig struct {
	SupportedFormats []string `json:"supported_formats" yaml:"supported_formats"`
	MinImageSize     int      `json:"min_image_size" yaml:"min_image_size"`
	HTTPTimeout      int      `json:"http_timeout_seconds" yaml:"http_timeout_seconds"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	DefaultFormat string `json:"default_format" yaml:"default_format"`
	Quality       int    `json:"quality" yaml:"quality"`
	Lossless      bool   `json:"lossless" yaml:"lossless"`
	OutputDir     string `json:"output_dir" yaml:"output_dir"`
	Prefix        string `json:"prefix" yaml:"prefix"`
	Suffix        string `json:"suffix" yaml:"suffix"`
	DebugOverlay  bool   `json:"debug_overlay" yaml:"debug_overlay"`
}

// RatingConfig holds configuration for the rating prompt counters
type RatingConfig struct {
	Interval    int    `json:"interval" yaml:"interval"`
	Store       string `json:"store" yaml:"store"`
	StorePath   string `json:"store_path" yaml:"store_path"`
	RedisAddr   string `json:"redis_addr" yaml:"redis_addr"`
	RedisPrefix string `json:"redis_prefix" yaml:"redis_prefix"`
}

// Rating store kinds
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Default returns a configuration with default values
func Default() *Config {
	render := compositor.DefaultConfig()
	editor := session.DefaultConfig()
	return &Config{
		Editor: EditorConfig{
			MinShapeSize:       editor.MinShapeSize,
			DefaultShapeWidth:  editor.DefaultShapeWidth,
			DefaultShapeHeight: editor.DefaultShapeHeight,
		},
		Render: RenderConfig{
			BlurBackend:  blur.BackendImaging,
			BlurRadius:   render.BlurRadius,
			MaxDimension: render.MaxDimension,
			AntiAlias:    render.AntiAlias,
		},
		Input: InputConfig{
			SupportedFormats: []string{"jpg", "jpeg", "png", "webp"},
			MinImageSize:     1,
			HTTPTimeout:      30,
		},
		Output: OutputConfig{
			DefaultFormat: "jpg",
			Quality:       90,
			Lossless:      false,
			OutputDir:     "./output",
			Prefix:        "",
			Suffix:        "_blurred",
		},
		Rating: RatingConfig{
			Interval:    rating.DefaultInterval,
			Store:       StoreFile,
			StorePath:   defaultStatePath(),
			RedisAddr:   "localhost:6379",
			RedisPrefix: "blurface:",
		},
	}
}

// Load reads the configuration file at filename, falling back to defaults
// when it does not exist, then applies environment overrides and validates.
func Load(filename string) (*Config, error) {
	cfg, err := LoadFromFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
	} else if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON or YAML file. Fields missing
// from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isJSON(filename) {
		err = json.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON or YAML file, chosen by extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isJSON(filename) {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from BLURFACE_* environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("BLURFACE_BLUR_BACKEND"); ok && v != "" {
		c.Render.BlurBackend = v
	}
	if v, ok := lookup("BLURFACE_BLUR_RADIUS"); ok && v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BLURFACE_BLUR_RADIUS: %w", err)
		}
		c.Render.BlurRadius = r
	}
	if v, ok := lookup("BLURFACE_MAX_DIMENSION"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BLURFACE_MAX_DIMENSION: %w", err)
		}
		c.Render.MaxDimension = n
	}
	if v, ok := lookup("BLURFACE_REDIS_ADDR"); ok && v != "" {
		c.Rating.RedisAddr = v
	}
	if v, ok := lookup("BLURFACE_RATING_STORE"); ok && v != "" {
		c.Rating.Store = strings.ToLower(v)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Editor.MinShapeSize <= 0 {
		return fmt.Errorf("editor.min_shape_size must be positive")
	}

	if c.Editor.DefaultShapeWidth < c.Editor.MinShapeSize || c.Editor.DefaultShapeHeight < c.Editor.MinShapeSize {
		return fmt.Errorf("editor default shape size must not be below editor.min_shape_size")
	}

	if _, err := blur.New(c.Render.BlurBackend); err != nil {
		return fmt.Errorf("render.blur_backend: %w", err)
	}

	if c.Render.BlurRadius < 0 {
		return fmt.Errorf("render.blur_radius must not be negative")
	}

	if c.Render.MaxDimension < 0 {
		return fmt.Errorf("render.max_dimension must not be negative")
	}

	if len(c.Input.SupportedFormats) == 0 {
		return fmt.Errorf("input.supported_formats cannot be empty")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	switch processing.NormalizeFormat(c.Output.DefaultFormat) {
	case "jpg", "png", "webp":
	default:
		return fmt.Errorf("output.default_format must be jpg, png or webp")
	}

	if c.Rating.Interval < 1 {
		return fmt.Errorf("rating.interval must be positive")
	}

	switch c.Rating.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("rating.store must be memory, file or redis")
	}

	return nil
}

// SessionConfig returns the editing session settings
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		MinShapeSize:       c.Editor.MinShapeSize,
		DefaultShapeWidth:  c.Editor.DefaultShapeWidth,
		DefaultShapeHeight: c.Editor.DefaultShapeHeight,
	}
}

// CompositorConfig returns the renderer settings
func (c *Config) CompositorConfig() compositor.Config {
	return compositor.Config{
		BlurRadius:   c.Render.BlurRadius,
		MaxDimension: c.Render.MaxDimension,
		AntiAlias:    c.Render.AntiAlias,
	}
}

// ProcessingConfig returns the image I/O settings
func (c *Config) ProcessingConfig() processing.Config {
	cfg := processing.DefaultConfig()
	cfg.DefaultQuality = c.Output.Quality
	cfg.SupportedFormats = c.Input.SupportedFormats
	cfg.MinImageSize = c.Input.MinImageSize
	if c.Input.HTTPTimeout > 0 {
		cfg.HTTPTimeout = time.Duration(c.Input.HTTPTimeout) * time.Second
	}
	return cfg
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "blurface", "config.yaml")
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./rating.yaml"
	}
	return filepath.Join(home, ".local", "state", "blurface", "rating.yaml")
}

func isJSON(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}
