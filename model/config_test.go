package model

import "testing"

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero clusters", func(c *Config) { c.NumberOfClusters = 0 }, true},
		{"dpus less than clusters", func(c *Config) { c.NumberOfDPUs = 0; c.NumberOfClusters = 4 }, true},
		{"zero cmx", func(c *Config) { c.CMX = 0 }, true},
		{"negative ddr scratch", func(c *Config) { c.DDRScratch = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDPUsPerCluster(t *testing.T) {
	t.Parallel()
	c := DefaultConfig()
	c.NumberOfClusters = 4
	c.NumberOfDPUs = 20
	if got, want := c.DPUsPerCluster(), 5; got != want {
		t.Errorf("DPUsPerCluster() = %d, want %d", got, want)
	}
}
