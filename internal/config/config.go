// Package config loads humanizer settings from defaults, an optional config
// file, a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "HUMANIZER"

type Config struct {
	SourceLang       string `mapstructure:"source_lang"`
	TargetLang       string `mapstructure:"target_lang"`
	MaxRetries       int    `mapstructure:"max_retries"`
	ValidateLanguage bool   `mapstructure:"validate_language"`

	Translator TranslatorConfig `mapstructure:"translator"`
	Rewriter   RewriterConfig   `mapstructure:"rewriter"`
	Detector   DetectorConfig   `mapstructure:"detector"`
	History    HistoryConfig    `mapstructure:"history"`
	Log        LogConfig        `mapstructure:"log"`
}

type TranslatorConfig struct {
	Service       string        `mapstructure:"service"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MyMemoryEmail string        `mapstructure:"mymemory_email"`
	MyMemoryURL   string        `mapstructure:"mymemory_url"`
	Credentials   string        `mapstructure:"credentials"`
	ProjectID     string        `mapstructure:"project_id"`
	OllamaURL     string        `mapstructure:"ollama_url"`
	OllamaModel   string        `mapstructure:"ollama_model"`
}

type RewriterConfig struct {
	Provider  string        `mapstructure:"provider"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	OllamaURL string        `mapstructure:"ollama_url"`
}

type DetectorConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

var (
	translatorServices = []string{"mymemory", "google", "ollama"}
	rewriterProviders  = []string{"groq", "openai", "ollama"}
)

// envAliases are the plain variable names the hosted services document,
// accepted next to the HUMANIZER_ prefixed ones.
var envAliases = map[string]string{
	"rewriter.api_key":       "GROQ_API_KEY",
	"translator.credentials": "GOOGLE_APPLICATION_CREDENTIALS",
	"translator.project_id":  "GOOGLE_CLOUD_PROJECT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source_lang", "en")
	v.SetDefault("target_lang", "")
	v.SetDefault("max_retries", 3)
	v.SetDefault("validate_language", false)

	v.SetDefault("translator.service", "mymemory")
	v.SetDefault("translator.timeout", 30*time.Second)
	v.SetDefault("translator.mymemory_email", "")
	v.SetDefault("translator.mymemory_url", "https://api.mymemory.translated.net/get")
	v.SetDefault("translator.credentials", "")
	v.SetDefault("translator.project_id", "")
	v.SetDefault("translator.ollama_url", "http://localhost:11434")
	v.SetDefault("translator.ollama_model", "")

	v.SetDefault("rewriter.provider", "groq")
	v.SetDefault("rewriter.api_key", "")
	v.SetDefault("rewriter.base_url", "")
	v.SetDefault("rewriter.model", "llama-3.1-8b-instant")
	v.SetDefault("rewriter.timeout", 60*time.Second)
	v.SetDefault("rewriter.ollama_url", "http://localhost:11434")

	v.SetDefault("detector.url", "https://api.zerogpt.com/api/detect/detectText")
	v.SetDefault("detector.timeout", 15*time.Second)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.db_path", defaultDBPath())

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "humanizer.db"
	}
	return filepath.Join(dir, "humanizer", "history.db")
}

// Load reads configuration. configFile may be empty, in which case
// humanizer.yaml is looked up in the working directory and in
// $HOME/.config/humanizer; a missing file is not an error.
func Load(configFile string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("humanizer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "humanizer"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, alias); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv copies KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is
// ignored.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if current, ok := os.LookupEnv(name); ok && current != "" {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if !oneOf(c.Translator.Service, translatorServices) {
		return fmt.Errorf("unknown translator service %q (want one of %s)", c.Translator.Service, strings.Join(translatorServices, ", "))
	}
	if !oneOf(c.Rewriter.Provider, rewriterProviders) {
		return fmt.Errorf("unknown rewriter provider %q (want one of %s)", c.Rewriter.Provider, strings.Join(rewriterProviders, ", "))
	}
	if c.SourceLang != "" && strings.EqualFold(c.SourceLang, c.TargetLang) {
		return fmt.Errorf("source_lang and target_lang must differ")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func oneOf(s string, options []string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
