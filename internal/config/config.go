package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

type Config struct {
	SenderName    string `mapstructure:"sender_name"`
	Width         int    `mapstructure:"width"`
	Height        int    `mapstructure:"height"`
	Format        string `mapstructure:"format"`
	FrameRate     int    `mapstructure:"frame_rate"`
	MaxSenders    int    `mapstructure:"max_senders"`
	ControlPipe   string `mapstructure:"control_pipe"`
	QueueSize     int    `mapstructure:"queue_size"`
	LogFormat     string `mapstructure:"log_format"`
	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
}

func Default() *Config {
	return &Config{
		SenderName:    "Spout Sender",
		Width:         1920,
		Height:        1080,
		Format:        "B8G8R8A8_UNORM",
		FrameRate:     60,
		MaxSenders:    64,
		QueueSize:     4,
		LogFormat:     "text",
		LogLevel:      "info",
		LogMaxSizeMB:  10,
		LogMaxBackups: 3,
	}
}

// keys lists every setting so SPOUT_* environment variables resolve even
// when no config file mentions them.
var keys = []string{
	"sender_name", "width", "height", "format", "frame_rate", "max_senders",
	"control_pipe", "queue_size", "log_format", "log_level", "log_file",
	"log_max_size_mb", "log_max_backups",
}

// Load reads cfgFile, or spout-sender.yaml from the config directory or the
// working directory, then applies SPOUT_* environment overrides.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("spout-sender")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SPOUT")
	v.AutomaticEnv()
	for _, k := range keys {
		v.BindEnv(k)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveTo(cfg *Config, cfgFile string) error {
	v := viper.New()
	v.Set("sender_name", cfg.SenderName)
	v.Set("width", cfg.Width)
	v.Set("height", cfg.Height)
	v.Set("format", cfg.Format)
	v.Set("frame_rate", cfg.FrameRate)
	v.Set("max_senders", cfg.MaxSenders)
	v.Set("control_pipe", cfg.ControlPipe)
	v.Set("queue_size", cfg.QueueSize)
	v.Set("log_format", cfg.LogFormat)
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_file", cfg.LogFile)
	v.Set("log_max_size_mb", cfg.LogMaxSizeMB)
	v.Set("log_max_backups", cfg.LogMaxBackups)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
	} else {
		cfgPath = filepath.Join(configDir(), "spout-sender.yaml")
		if err := os.MkdirAll(configDir(), 0755); err != nil {
			return err
		}
	}

	return v.WriteConfigAs(cfgPath)
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "SpoutSender")
	case "darwin":
		return "/Library/Application Support/SpoutSender"
	default:
		return "/etc/spout-sender"
	}
}
