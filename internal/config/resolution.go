package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	UnmatchedKeepIncoming = "keep_incoming"
	UnmatchedProcessed    = "processed"
)

// ResolutionConfig tunes the sender-name resolution engine.
type ResolutionConfig struct {
	MinConfidence           float64
	MaxSuggestionConfidence float64
	TenantNameWeight        float64
	UnmatchedPolicy         string
}

func DefaultResolutionConfig() ResolutionConfig {
	return ResolutionConfig{
		MinConfidence:           0.6,
		MaxSuggestionConfidence: 0.99,
		TenantNameWeight:        0.95,
		UnmatchedPolicy:         UnmatchedKeepIncoming,
	}
}

type ResolutionConfigHolder struct {
	current atomic.Value // holds ResolutionConfig
}

// NewResolutionConfigHolder reads resolution.yml from RESOLUTION_CONFIG_PATH or
// the standard locations and reloads it whenever the file changes.
func NewResolutionConfigHolder(cfg Config, log *zap.Logger) (*ResolutionConfigHolder, error) {
	return LoadResolutionConfig(cfg.ResolutionConfigPath, log.Named("resolution.config"))
}

func LoadResolutionConfig(path string, log *zap.Logger) (*ResolutionConfigHolder, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("resolution")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/checkmapper")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CHECKMAPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultResolutionConfig()
	v.SetDefault("resolution.minConfidence", defaults.MinConfidence)
	v.SetDefault("resolution.maxSuggestionConfidence", defaults.MaxSuggestionConfidence)
	v.SetDefault("resolution.tenantNameWeight", defaults.TenantNameWeight)
	v.SetDefault("resolution.unmatchedPolicy", defaults.UnmatchedPolicy)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, err
		}
		found = false
	}

	cfg := readResolutionConfig(v)
	if err := ValidateResolutionConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticResolutionConfig(cfg)
	if !found {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		updated := readResolutionConfig(v)
		if err := ValidateResolutionConfig(updated); err != nil {
			log.Warn("invalid resolution config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("resolution config reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

// readResolutionConfig reads key by key so that defaults fill keys missing from the file.
func readResolutionConfig(v *viper.Viper) ResolutionConfig {
	return ResolutionConfig{
		MinConfidence:           v.GetFloat64("resolution.minConfidence"),
		MaxSuggestionConfidence: v.GetFloat64("resolution.maxSuggestionConfidence"),
		TenantNameWeight:        v.GetFloat64("resolution.tenantNameWeight"),
		UnmatchedPolicy:         strings.TrimSpace(v.GetString("resolution.unmatchedPolicy")),
	}
}

// NewStaticResolutionConfig returns a holder that never reloads.
func NewStaticResolutionConfig(cfg ResolutionConfig) *ResolutionConfigHolder {
	holder := &ResolutionConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *ResolutionConfigHolder) Get() ResolutionConfig {
	return h.current.Load().(ResolutionConfig)
}

func ValidateResolutionConfig(cfg ResolutionConfig) error {
	if cfg.MinConfidence <= 0 || cfg.MinConfidence >= 1 {
		return fmt.Errorf("resolution.minConfidence must be in (0,1), got %v", cfg.MinConfidence)
	}
	if cfg.MaxSuggestionConfidence <= 0 || cfg.MaxSuggestionConfidence >= 1 {
		return fmt.Errorf("resolution.maxSuggestionConfidence must be in (0,1), got %v", cfg.MaxSuggestionConfidence)
	}
	if cfg.MinConfidence > cfg.MaxSuggestionConfidence {
		return errors.New("resolution.minConfidence cannot exceed resolution.maxSuggestionConfidence")
	}
	if cfg.TenantNameWeight <= 0 || cfg.TenantNameWeight > 1 {
		return fmt.Errorf("resolution.tenantNameWeight must be in (0,1], got %v", cfg.TenantNameWeight)
	}
	switch cfg.UnmatchedPolicy {
	case UnmatchedKeepIncoming, UnmatchedProcessed:
	default:
		return fmt.Errorf("resolution.unmatchedPolicy must be %q or %q", UnmatchedKeepIncoming, UnmatchedProcessed)
	}
	return nil
}
