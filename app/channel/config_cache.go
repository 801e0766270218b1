package channel

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type ConfigCache struct {
	channelsDir string
	cache       map[string]*Config
	mu          sync.RWMutex
}

func NewConfigCache(channelsDir string) *ConfigCache {
	return &ConfigCache{
		channelsDir: channelsDir,
		cache:       make(map[string]*Config),
	}
}

// Run loads every *.yml file of the channels directory. A missing directory is not an error.
func (cc *ConfigCache) Run() error {
	if cc.channelsDir == "" {
		return nil
	}
	if _, err := os.Stat(cc.channelsDir); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.channelsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := cc.LoadConfig(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "channel", name, "enabled", config.Settings.Enabled,
			"refresh_interval", config.Settings.RefreshInterval, "full_sync", config.Settings.FullSync)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(name string) (*Config, error) {
	configFile := cc.getConfigFilePath(name)
	config, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	config.Name = name

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.store(config)
	return config, nil
}

// AddImplicit registers an enabled channel with default settings that has no
// YAML file behind it. An existing configuration of the same name wins.
func (cc *ConfigCache) AddImplicit(channelID string) (*Config, error) {
	if existing, err := cc.GetConfig(ImplicitName); err == nil {
		return existing, nil
	}

	config := &Config{
		Name:      ImplicitName,
		ChannelID: strings.TrimSpace(channelID),
		Settings:  Settings{Enabled: true},
	}
	config.applyDefaults()

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid channel id: %w", err)
	}

	cc.store(config)
	return config, nil
}

func (cc *ConfigCache) GetConfig(name string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[name]
	if !ok {
		return nil, fmt.Errorf("channel config with name '%s' not found", name)
	}
	return config, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) store(config *Config) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = config
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.ChannelID = strings.TrimSpace(config.ChannelID)
	config.applyDefaults()

	return &config, nil
}

func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if err := validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			return fmt.Errorf("field %s failed on '%s'", first.Namespace(), first.Tag())
		}
		return err
	}

	if _, err := cron.ParseStandard(config.Settings.FullSync); err != nil {
		return fmt.Errorf("invalid full_sync schedule %q: %w", config.Settings.FullSync, err)
	}

	if _, err := language.Parse(config.Settings.CaptionLanguage); err != nil {
		return fmt.Errorf("invalid caption_language %q: %w", config.Settings.CaptionLanguage, err)
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(name string) string {
	return filepath.Join(cc.channelsDir, name+".yml")
}
