package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/natefinch/atomic"
)

// ServerConfig holds the configuration for the HTTP server and its storage.
type ServerConfig struct {
	ApiAddr        string `json:"api_addr"`
	LogLevel       string `json:"log_level"`
	DataDir        string `json:"data_dir"`
	DatabasePath   string `json:"database_path"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
}

// MarkovConfig holds settings for learning, generation and model storage.
type MarkovConfig struct {
	ModelPath          string   `json:"model_path"`
	CorpusGlob         string   `json:"corpus_glob"`
	Tokenizer          string   `json:"tokenizer"`
	SentencepieceModel string   `json:"sentencepiece_model"`
	SpamMarkers        []string `json:"spam_markers"`
	MaxGenerateLength  int      `json:"max_generate_length"`
	MaxGenerateCount   int      `json:"max_generate_count"`
	ModelCacheSize     int      `json:"model_cache_size"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server *ServerConfig `json:"server_config"`
	Markov *MarkovConfig `json:"markov_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ApiAddr:        ":7290",
		LogLevel:       "info",
		DataDir:        "./data",
		DatabasePath:   "./data/murmur.db?_journal_mode=WAL&_busy_timeout=5000",
		MaxUploadBytes: 256 << 20,
	}
}

// DefaultMarkovConfig creates a markov configuration with default values.
func DefaultMarkovConfig() *MarkovConfig {
	return &MarkovConfig{
		ModelPath:          "./data/model.bin",
		CorpusGlob:         "./data/corpus/**/*.zip",
		Tokenizer:          "default",
		SentencepieceModel: "",
		SpamMarkers:        nil,
		MaxGenerateLength:  200,
		MaxGenerateCount:   50,
		ModelCacheSize:     8,
	}
}

// DefaultConfig returns a configuration with every section set to its defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: DefaultServerConfig(),
		Markov: DefaultMarkovConfig(),
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The server can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Sections missing from the file keep their defaults.
	if config.Server == nil {
		config.Server = DefaultServerConfig()
	}
	if config.Markov == nil {
		config.Markov = DefaultMarkovConfig()
	}

	return config, nil
}

// ConfigManager handles thread-safe access to the configuration.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &ConfigManager{
		config:     cfg,
		configPath: path,
	}, nil
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	server := *cm.config.Server
	markov := *cm.config.Markov
	return Config{Server: &server, Markov: &markov}
}

// Update replaces the configuration and saves it to disk. Most settings only
// take effect after a restart.
func (cm *ConfigManager) Update(newConfig Config) error {
	if newConfig.Server == nil || newConfig.Markov == nil {
		return fmt.Errorf("configuration must contain server_config and markov_config")
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	data, err := json.MarshalIndent(&newConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	cm.config = &newConfig
	return nil
}
