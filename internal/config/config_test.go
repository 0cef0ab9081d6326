package config

import (
	"os"
	"path/filepath"
	"testing"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.Render.BlurRadius != 50 || cfg.Render.MaxDimension != 4096 {
		t.Errorf("Unexpected render defaults %+v", cfg.Render)
	}
	if cfg.Editor.MinShapeSize != 20 {
		t.Errorf("Expected min shape size 20, got %v", cfg.Editor.MinShapeSize)
	}
	if cfg.Rating.Interval != 3 {
		t.Errorf("Expected rating interval 3, got %d", cfg.Rating.Interval)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"config.json", "config.yaml"} {
		path := filepath.Join(dir, "nested", name)
		cfg := Default()
		cfg.Render.BlurBackend = "gift"
		cfg.Output.Quality = 75

		if err := cfg.SaveToFile(path); err != nil {
			t.Fatalf("SaveToFile(%s) failed: %v", name, err)
		}
		loaded, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile(%s) failed: %v", name, err)
		}
		if loaded.Render.BlurBackend != "gift" || loaded.Output.Quality != 75 {
			t.Errorf("%s: expected overrides to survive, got %+v %+v", name, loaded.Render, loaded.Output)
		}
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("render:\n  blur_radius: 12\n"), 0644)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Render.BlurRadius != 12 {
		t.Errorf("Expected radius 12, got %v", cfg.Render.BlurRadius)
	}
	if cfg.Render.MaxDimension != 4096 || cfg.Output.Quality != 90 {
		t.Error("Expected unspecified fields to keep defaults")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Output.Suffix != "_blurred" {
		t.Errorf("Expected default suffix, got %q", cfg.Output.Suffix)
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{not json"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"BLURFACE_BLUR_BACKEND":  "bild",
		"BLURFACE_BLUR_RADIUS":   "8.5",
		"BLURFACE_MAX_DIMENSION": "2048",
		"BLURFACE_REDIS_ADDR":    "redis:6380",
		"BLURFACE_RATING_STORE":  "Redis",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Render.BlurBackend != "bild" || cfg.Render.BlurRadius != 8.5 || cfg.Render.MaxDimension != 2048 {
		t.Errorf("Unexpected render config %+v", cfg.Render)
	}
	if cfg.Rating.RedisAddr != "redis:6380" || cfg.Rating.Store != StoreRedis {
		t.Errorf("Unexpected rating config %+v", cfg.Rating)
	}

	if err := Default().ApplyEnv(envMap(map[string]string{"BLURFACE_BLUR_RADIUS": "strong"})); err == nil {
		t.Error("Expected error for non-numeric radius")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero min size", func(c *Config) { c.Editor.MinShapeSize = 0 }},
		{"default below min", func(c *Config) { c.Editor.DefaultShapeHeight = 5 }},
		{"unknown backend", func(c *Config) { c.Render.BlurBackend = "box" }},
		{"negative radius", func(c *Config) { c.Render.BlurRadius = -1 }},
		{"negative max dimension", func(c *Config) { c.Render.MaxDimension = -1 }},
		{"no formats", func(c *Config) { c.Input.SupportedFormats = nil }},
		{"quality", func(c *Config) { c.Output.Quality = 101 }},
		{"output format", func(c *Config) { c.Output.DefaultFormat = "gif" }},
		{"interval", func(c *Config) { c.Rating.Interval = 0 }},
		{"store", func(c *Config) { c.Rating.Store = "sqlite" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestDerivedConfigs(t *testing.T) {
	cfg := Default()
	cfg.Render.AntiAlias = true
	cfg.Input.HTTPTimeout = 5

	if !cfg.CompositorConfig().AntiAlias {
		t.Error("Expected anti-alias to carry over")
	}
	if cfg.SessionConfig().DefaultShapeWidth != 100 {
		t.Error("Expected default shape width 100")
	}
	pc := cfg.ProcessingConfig()
	if pc.HTTPTimeout.Seconds() != 5 || pc.DefaultQuality != 90 {
		t.Errorf("Unexpected processing config %+v", pc)
	}
}

func TestGetConfigPath(t *testing.T) {
	if filepath.Base(GetConfigPath()) != "config.yaml" {
		t.Errorf("Unexpected config path %s", GetConfigPath())
	}
}
