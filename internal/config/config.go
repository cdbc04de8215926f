package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig is the application configuration, loaded from config.toml
// next to the executable.
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Calendar CalendarConfig `toml:"calendar"`
	Deck     DeckConfig     `toml:"deck"`
	Auth     AuthConfig     `toml:"auth"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig holds data directory settings.
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// CalendarConfig holds the commercial-month cut day.
type CalendarConfig struct {
	CutDay int `toml:"cut_day"`
}

// DeckConfig holds slide-deck export settings.
type DeckConfig struct {
	TemplatePath      string `toml:"template_path"`
	RenderCommand     string `toml:"render_command"`
	RenderTimeoutSecs int    `toml:"render_timeout_secs"`
}

// AuthConfig holds the user store location.
type AuthConfig struct {
	UsersPath string `toml:"users_path"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20380,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Calendar: CalendarConfig{
			CutDay: 1,
		},
		Deck: DeckConfig{
			RenderTimeoutSecs: 10,
		},
		Auth: AuthConfig{
			UsersPath: "users.json",
		},
	}
}

// GetExeDir returns the directory of the running executable.
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfig reads config.toml, falling back to defaults when the file is
// absent. Cut-day validation happens here so a bad calendar never reaches
// ingestion.
func LoadConfig() (*AppConfig, error) {
	cfg := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// env overrides, for local runs and tests
	if v := os.Getenv("REALH_DECK_TEMPLATE_PATH"); v != "" {
		cfg.Deck.TemplatePath = v
	}
	if v := os.Getenv("REALH_USERS_PATH"); v != "" {
		cfg.Auth.UsersPath = v
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot honor.
func Validate(cfg *AppConfig) error {
	if cfg.Calendar.CutDay < 1 || cfg.Calendar.CutDay > 28 {
		return fmt.Errorf("config: calendar.cut_day must be in [1,28], got %d", cfg.Calendar.CutDay)
	}
	if cfg.Deck.RenderTimeoutSecs <= 0 {
		cfg.Deck.RenderTimeoutSecs = 10
	}
	return nil
}

// SaveConfig writes the configuration back to config.toml.
func SaveConfig(cfg *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(exeDir, "config.toml"), data, 0644)
}

// EnsureDataDir creates the data directory tree next to the executable.
func EnsureDataDir(cfg *AppConfig) (string, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	dataDir := filepath.Join(exeDir, cfg.Data.DataDir)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	for _, subdir := range []string{"uploads", "exports"} {
		if err := os.MkdirAll(filepath.Join(dataDir, subdir), 0755); err != nil {
			return "", err
		}
	}
	return dataDir, nil
}
