package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Ollama   OllamaConfig   `mapstructure:"ollama"`
	History  HistoryConfig  `mapstructure:"history"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug or release
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// OllamaConfig 本地大模型服务的接入参数
type OllamaConfig struct {
	URL            string        `mapstructure:"url"`
	Model          string        `mapstructure:"model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
}

// HistoryConfig 重命名历史的保留策略
type HistoryConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

var AppConfig *Config

func LoadConfig(configPath string) error {
	v := viper.New()

	// 默认值
	v.SetDefault("server.port", 8317)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.path", "data/renamer.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.model", "qwen3:8b")
	v.SetDefault("ollama.request_timeout", 60*time.Second)
	v.SetDefault("ollama.probe_timeout", 2*time.Second)
	v.SetDefault("history.retention_days", 90)

	// 配置文件路径
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}

	// 环境变量替换 (使用 RENAMER_ 前缀)
	// 比如 RENAMER_SERVER_PORT=9090
	v.SetEnvPrefix("RENAMER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay, use defaults
		fmt.Println("Config file not found, using defaults")
	}

	AppConfig = &Config{}
	if err := v.Unmarshal(AppConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}
