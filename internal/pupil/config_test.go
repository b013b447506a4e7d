package pupil

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig() failed validation: %v", err)
	}
}

func TestConfigValidateRejectsBadFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
	}{
		{"zero glint size", func(c *Config) { c.GlintSize = 0 }},
		{"even canny kernel", func(c *Config) { c.CannyKernelSize = 4 }},
		{"equal circumference bounds", func(c *Config) { c.CircumferenceMin = c.CircumferenceMax }},
		{"aspect ratio min too large", func(c *Config) { c.AspectRatioMin = 1.5 }},
		{"alpha average out of range", func(c *Config) { c.AlphaAverage = 1 }},
		{"certainty bounds equal", func(c *Config) { c.CertaintyLowerLimit = c.CertaintyUpperLimit }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
