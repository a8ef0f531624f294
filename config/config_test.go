package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.HTTP.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %s", config.HTTP.Addr)
	}
	if config.Apply.MaxSteps != 10 {
		t.Errorf("expected max_steps 10, got %d", config.Apply.MaxSteps)
	}
	if config.Apply.MaxControls != 30 {
		t.Errorf("expected max_controls 30, got %d", config.Apply.MaxControls)
	}
	if config.Apply.MaxActed != 20 {
		t.Errorf("expected max_acted 20, got %d", config.Apply.MaxActed)
	}
	if config.Apply.ResumeExcerpt != 1500 {
		t.Errorf("expected resume_excerpt 1500, got %d", config.Apply.ResumeExcerpt)
	}
	if len(config.Apply.SuccessPhrases) != 6 {
		t.Errorf("expected 6 success phrases, got %d", len(config.Apply.SuccessPhrases))
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing addr",
			mutate:  func(c *Config) { c.HTTP.Addr = "" },
			wantErr: true,
		},
		{
			name:    "missing model name",
			mutate:  func(c *Config) { c.Model.Name = "" },
			wantErr: true,
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.Model.Temperature = 1.5 },
			wantErr: true,
		},
		{
			name:    "zero max steps",
			mutate:  func(c *Config) { c.Apply.MaxSteps = 0 },
			wantErr: true,
		},
		{
			name:    "acted cap above inspect cap",
			mutate:  func(c *Config) { c.Apply.MaxActed = 50 },
			wantErr: true,
		},
		{
			name: "no success detection configured",
			mutate: func(c *Config) {
				c.Apply.SuccessURLKeywords = nil
				c.Apply.SuccessPhrases = nil
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	config := DefaultConfig()
	config.HTTP.Addr = ":9090"
	config.Model.Name = "gpt-4o-mini"
	config.Browser.NavTimeout = 45 * time.Second

	if err := config.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if loaded.HTTP.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %s", loaded.HTTP.Addr)
	}
	if loaded.Model.Name != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %s", loaded.Model.Name)
	}
	if loaded.Browser.NavTimeout != 45*time.Second {
		t.Errorf("expected nav timeout 45s, got %v", loaded.Browser.NavTimeout)
	}
	// Unset fields keep defaults
	if loaded.Apply.MaxSteps != 10 {
		t.Errorf("expected default max_steps preserved, got %d", loaded.Apply.MaxSteps)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	overlay := &Config{}
	overlay.Model.Name = "qwen2.5-coder"
	overlay.Model.Provider = "ollama"
	overlay.NATS.URL = "nats://localhost:4222"
	overlay.Apply.MaxSteps = 5
	overlay.Apply.SubmitLabels = []string{"Send"}

	base.Merge(overlay)

	if base.Model.Name != "qwen2.5-coder" {
		t.Errorf("expected overlay model name, got %s", base.Model.Name)
	}
	if base.NATS.Embedded {
		t.Error("external NATS URL should disable embedded server")
	}
	if base.Apply.MaxSteps != 5 {
		t.Errorf("expected overlay max_steps 5, got %d", base.Apply.MaxSteps)
	}
	if len(base.Apply.SubmitLabels) != 1 || base.Apply.SubmitLabels[0] != "Send" {
		t.Errorf("expected overlay submit labels, got %v", base.Apply.SubmitLabels)
	}
	// Untouched fields keep base values
	if base.HTTP.Addr != ":8080" {
		t.Errorf("expected base addr preserved, got %s", base.HTTP.Addr)
	}
	if len(base.Apply.SuccessPhrases) != 6 {
		t.Errorf("expected base success phrases preserved, got %d", len(base.Apply.SuccessPhrases))
	}
}

func TestMergeNil(t *testing.T) {
	base := DefaultConfig()
	base.Merge(nil)
	if base.HTTP.Addr != ":8080" {
		t.Error("merging nil should be a no-op")
	}
}

func TestLoaderLayering(t *testing.T) {
	dir := t.TempDir()

	project := filepath.Join(dir, "applyflow.yaml")
	if err := os.WriteFile(project, []byte("http:\n  addr: \":7070\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	explicit := filepath.Join(dir, "override.yaml")
	if err := os.WriteFile(explicit, []byte("apply:\n  max_steps: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(dir)
	config, err := loader.Load(explicit)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.HTTP.Addr != ":7070" {
		t.Errorf("expected project addr :7070, got %s", config.HTTP.Addr)
	}
	if config.Apply.MaxSteps != 3 {
		t.Errorf("expected explicit max_steps 3, got %d", config.Apply.MaxSteps)
	}
	if config.Model.Provider != "anthropic" {
		t.Errorf("expected default provider preserved, got %s", config.Model.Provider)
	}
}
