package applyrunner

import "testing"

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	if config.StreamName != "APPLYFLOW" {
		t.Errorf("unexpected stream name %s", config.StreamName)
	}
	if config.TaskSubject != "applyflow.task.queued" {
		t.Errorf("unexpected task subject %s", config.TaskSubject)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing stream", func(c *Config) { c.StreamName = "" }, true},
		{"missing consumer", func(c *Config) { c.ConsumerName = "" }, true},
		{"missing subject", func(c *Config) { c.TaskSubject = "" }, true},
		{"zero concurrency", func(c *Config) { c.MaxConcurrent = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
