package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Browse   BrowseConfig   `mapstructure:"browse"`
	Database DatabaseConfig `mapstructure:"database"`
	Download DownloadConfig `mapstructure:"download"`
	UI       UIConfig       `mapstructure:"ui"`
	Media    MediaConfig    `mapstructure:"media"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Key         string        `mapstructure:"key"`
	PerPage     int           `mapstructure:"per_page"`
	SafeSearch  bool          `mapstructure:"safesearch"`
	Editors     bool          `mapstructure:"editors"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	UserAgent   string        `mapstructure:"user_agent"`
}

type BrowseConfig struct {
	Debounce          time.Duration `mapstructure:"debounce"`
	MinLoading        time.Duration `mapstructure:"min_loading"`
	LoadMoreThreshold int           `mapstructure:"load_more_threshold"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type DownloadConfig struct {
	Dir string `mapstructure:"dir"`
}

type UIConfig struct {
	Language string     `mapstructure:"language"`
	Colors   UIColors   `mapstructure:"colors"`
	Grid     GridConfig `mapstructure:"grid"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type GridConfig struct {
	MinColumnWidth int `mapstructure:"min_column_width"`
	MaxColumns     int `mapstructure:"max_columns"`
	MinTileRows    int `mapstructure:"min_tile_rows"`
	MaxTileRows    int `mapstructure:"max_tile_rows"`
}

type MediaConfig struct {
	Darwin        MediaViewers `mapstructure:"darwin"`
	Linux         MediaViewers `mapstructure:"linux"`
	Windows       MediaViewers `mapstructure:"windows"`
	DefaultOpener string       `mapstructure:"default_opener"`
}

type MediaViewers struct {
	Image []string `mapstructure:"image"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit     string `mapstructure:"quit"`
	Search   string `mapstructure:"search"`
	Filters  string `mapstructure:"filters"`
	Refresh  string `mapstructure:"refresh"`
	Library  string `mapstructure:"library"`
	Download string `mapstructure:"download"`
	Share    string `mapstructure:"share"`
	Open     string `mapstructure:"open"`
	Delete   string `mapstructure:"delete"`
	Back     string `mapstructure:"back"`
	Top      string `mapstructure:"top"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".pixa.db")
	searchIndexPath := filepath.Join(homeDir, ".pixa", "index.bleve")
	downloadDir := filepath.Join(homeDir, "Pictures", "Pixabay")

	return &Config{
		API: APIConfig{
			BaseURL:     "https://pixabay.com/api/",
			PerPage:     25,
			SafeSearch:  true,
			Editors:     true,
			HTTPTimeout: 30 * time.Second,
			CacheTTL:    24 * time.Hour,
			UserAgent:   "pixa/1.0 (https://github.com/pders01/pixa)",
		},
		Browse: BrowseConfig{
			Debounce:          400 * time.Millisecond,
			MinLoading:        1000 * time.Millisecond,
			LoadMoreThreshold: 4,
		},
		Database: DatabaseConfig{
			Path:        dbPath,
			Timeout:     1 * time.Second,
			SearchIndex: searchIndexPath,
		},
		Download: DownloadConfig{
			Dir: downloadDir,
		},
		UI: UIConfig{
			Language: "en",
			Colors: UIColors{
				Primary:    "#2EC66D",
				Secondary:  "#48A9E6",
				Accent:     "#F5C451",
				Background: "#12151C",
				Surface:    "#1C2230",
				Text:       "#E6E9EF",
				Muted:      "#8A93A6",
				Error:      "#EF5B5B",
				Success:    "#5BD68A",
			},
			Grid: GridConfig{
				MinColumnWidth: 28,
				MaxColumns:     4,
				MinTileRows:    5,
				MaxTileRows:    14,
			},
		},
		Media: MediaConfig{
			Darwin: MediaViewers{
				Image: []string{"qlmanage", "open"},
			},
			Linux: MediaViewers{
				Image: []string{"sxiv", "feh", "eog", "xdg-open"},
			},
			Windows: MediaViewers{
				Image: []string{"start"},
			},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:     "q",
				Search:   "/",
				Filters:  "f",
				Refresh:  "r",
				Library:  "l",
				Download: "d",
				Share:    "y",
				Open:     "o",
				Delete:   "x",
				Back:     "esc",
				Top:      "home",
			},
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".pixa", "pixa.log"),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("api", cfg.API)
	v.SetDefault("browse", cfg.Browse)
	v.SetDefault("database", cfg.Database)
	v.SetDefault("download", cfg.Download)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("media", cfg.Media)
	v.SetDefault("keys", cfg.Keys)
	v.SetDefault("log", cfg.Log)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "pixa")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PIXA")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Section defaults are structs, so nested env keys are resolved by hand.
	if key := os.Getenv("PIXA_API_KEY"); key != "" {
		config.API.Key = key
	} else if config.API.Key == "" {
		config.API.Key = os.Getenv("PIXABAY_API_KEY")
	}

	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Download.Dir = expandPath(cfg.Download.Dir)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations are written as strings so the TOML stays readable.
	apiCfg := map[string]interface{}{
		"base_url":     config.API.BaseURL,
		"key":          config.API.Key,
		"per_page":     config.API.PerPage,
		"safesearch":   config.API.SafeSearch,
		"editors":      config.API.Editors,
		"http_timeout": config.API.HTTPTimeout.String(),
		"cache_ttl":    config.API.CacheTTL.String(),
		"user_agent":   config.API.UserAgent,
	}

	browseCfg := map[string]interface{}{
		"debounce":            config.Browse.Debounce.String(),
		"min_loading":         config.Browse.MinLoading.String(),
		"load_more_threshold": config.Browse.LoadMoreThreshold,
	}

	dbCfg := map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	v.Set("api", apiCfg)
	v.Set("browse", browseCfg)
	v.Set("database", dbCfg)
	v.Set("download", config.Download)
	v.Set("ui", config.UI)
	v.Set("media", config.Media)
	v.Set("keys", config.Keys)
	v.Set("log", config.Log)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
