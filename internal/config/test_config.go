package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "http://127.0.0.1/api/",
			Key:         "test-key",
			PerPage:     25,
			SafeSearch:  true,
			Editors:     true,
			HTTPTimeout: 5 * time.Second,
			CacheTTL:    0, // Tests talk to the fake API directly
			UserAgent:   "pixa-test/1.0",
		},
		Browse: BrowseConfig{
			Debounce:          400 * time.Millisecond,
			MinLoading:        0,
			LoadMoreThreshold: 4,
		},
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		UI:    defaultConfig().UI,
		Media: defaultConfig().Media,
		Keys:  defaultConfig().Keys,
		Log:   LogConfig{Level: "off"},
	}
}
