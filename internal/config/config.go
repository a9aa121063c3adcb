// Package config declares the configuration surface and loads it with
// viper (file + environment overlay), validating with go-playground's
// validator. A failed validation is a ConfigError: the process refuses
// to start.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/errkind"
)

// ActivityTiming holds the per-activity silence/nudge contract (spec
// §3.2 invariant 5, §6.6).
type ActivityTiming struct {
	SilenceTimeoutS float64 `mapstructure:"silence_timeout_s" validate:"gt=0"`
	NudgeTimeoutS   float64 `mapstructure:"nudge_timeout_s" validate:"gt=0"`
}

// Config is the full recognized configuration surface from spec §6.6.
type Config struct {
	// Global
	SampleRateHz  int    `mapstructure:"sample_rate_hz" validate:"required"`
	FrameSize     int    `mapstructure:"frame_size" validate:"required"`
	MaxTurns      int    `mapstructure:"max_turns" validate:"gt=0"`
	UseAudioFiles bool   `mapstructure:"use_audio_files"`
	DefaultMood   string `mapstructure:"default_mood"`

	NudgePreDelayMS  int `mapstructure:"nudge_pre_delay_ms" validate:"gte=100,lte=400"`
	NudgePostDelayMS int `mapstructure:"nudge_post_delay_ms" validate:"gte=100,lte=400"`

	PauseFinalizationS  float64 `mapstructure:"pause_finalization_s" validate:"gt=0"`
	MinWordsThreshold   int     `mapstructure:"min_words_threshold" validate:"gt=0"`
	SttTimeoutS         float64 `mapstructure:"stt_timeout_s" validate:"gt=0"`
	MeditationStartDelayS float64 `mapstructure:"meditation_start_delay_s" validate:"gte=0"`
	PollIntervalMinutes int     `mapstructure:"poll_interval_minutes" validate:"gt=0"`

	// Per-activity overrides; keys are activity kinds ("idle",
	// "small_talk", "journal", "gratitude", "quote", "meditation",
	// "activity_suggestion").
	ActivityTimings map[string]ActivityTiming `mapstructure:"activity_timings"`

	// Termination phrases and intent keywords, keyed by BCP-47 language
	// code.
	TerminationPhrases map[string][]string `mapstructure:"termination_phrases" validate:"required"`
	IntentKeywords     map[string]map[string][]string `mapstructure:"intent_keywords" validate:"required"`

	// CJK languages counted by character rather than whitespace-token
	// for the journal minimum-content gate (§4.8).
	CJKLanguages []string `mapstructure:"cjk_languages"`

	Voice    string `mapstructure:"voice" validate:"required"`
	Language string `mapstructure:"language" validate:"required"`

	InterventionBaseURL string `mapstructure:"intervention_base_url" validate:"required,url"`
	RecordFilePath       string `mapstructure:"record_file_path" validate:"required"`
	PersonaFallbackPath  string `mapstructure:"persona_fallback_path" validate:"required"`

	LogFilePath string `mapstructure:"log_file_path"`
	Debug       bool   `mapstructure:"debug"`
}

// TimingFor returns the configured silence/nudge timing for an activity
// kind, falling back to "default" if no specific override is set.
func (c *Config) TimingFor(kind string) ActivityTiming {
	if t, ok := c.ActivityTimings[kind]; ok {
		return t
	}
	return c.ActivityTimings["default"]
}

// Default returns a Config with sane defaults for local/standalone
// operation; callers still run it through Validate.
func Default() *Config {
	return &Config{
		SampleRateHz:          16000,
		FrameSize:             512,
		MaxTurns:              20,
		NudgePreDelayMS:       200,
		NudgePostDelayMS:      200,
		PauseFinalizationS:    2.5,
		MinWordsThreshold:     3,
		SttTimeoutS:           8,
		MeditationStartDelayS: 1,
		PollIntervalMinutes:   15,
		ActivityTimings: map[string]ActivityTiming{
			"default": {SilenceTimeoutS: 8, NudgeTimeoutS: 6},
		},
		TerminationPhrases: map[string][]string{
			"en": {"stop", "that's all", "done", "goodbye"},
		},
		IntentKeywords: map[string]map[string][]string{
			"en": {
				"small_talk": {"chat", "talk", "i want to chat"},
				"journal":    {"journal", "journal entry"},
				"gratitude":  {"gratitude", "grateful"},
				"quote":      {"quote"},
				"meditation": {"meditation", "meditate"},
			},
		},
		CJKLanguages:        []string{"zh"},
		Voice:               "F1",
		Language:            "en",
		InterventionBaseURL: "http://localhost:8080",
		RecordFilePath:      "./data/intervention_record.json",
		PersonaFallbackPath: "./data/persona_fallback.json",
	}
}

// Load reads configuration from path (YAML/JSON/TOML per viper's
// extension sniffing) and overlays WELLBOT_-prefixed environment
// variables, starting from Default(). An empty path skips the file
// read and uses defaults plus environment overlay only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("wellbot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	if err := v.MergeConfigMap(structToMap(cfg)); err != nil {
		return nil, errkind.New(errkind.ConfigError, "seed defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, errkind.New(errkind.ConfigError, "read config file %s: %w", path, err)
		}
	}

	out := &Config{}
	if err := v.Unmarshal(out); err != nil {
		return nil, errkind.New(errkind.ConfigError, "unmarshal config: %w", err)
	}

	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate runs struct-tag validation over cfg, returning a ConfigError
// on the first failure set.
func Validate(cfg *Config) error {
	val := validator.New()
	if err := val.Struct(cfg); err != nil {
		return errkind.New(errkind.ConfigError, "invalid configuration: %w", err)
	}
	if len(cfg.TerminationPhrases) == 0 {
		return errkind.New(errkind.ConfigError, "termination_phrases must not be empty")
	}
	return nil
}

// structToMap is a narrow helper so Default()'s values seed viper
// before file/env overlay; viper has no native struct-to-map merge.
func structToMap(cfg *Config) map[string]interface{} {
	return map[string]interface{}{
		"sample_rate_hz":          cfg.SampleRateHz,
		"frame_size":              cfg.FrameSize,
		"max_turns":               cfg.MaxTurns,
		"use_audio_files":         cfg.UseAudioFiles,
		"default_mood":            cfg.DefaultMood,
		"nudge_pre_delay_ms":      cfg.NudgePreDelayMS,
		"nudge_post_delay_ms":     cfg.NudgePostDelayMS,
		"pause_finalization_s":    cfg.PauseFinalizationS,
		"min_words_threshold":     cfg.MinWordsThreshold,
		"stt_timeout_s":           cfg.SttTimeoutS,
		"meditation_start_delay_s": cfg.MeditationStartDelayS,
		"poll_interval_minutes":   cfg.PollIntervalMinutes,
		"activity_timings":        cfg.ActivityTimings,
		"termination_phrases":     cfg.TerminationPhrases,
		"intent_keywords":         cfg.IntentKeywords,
		"cjk_languages":           cfg.CJKLanguages,
		"voice":                   cfg.Voice,
		"language":                cfg.Language,
		"intervention_base_url":   cfg.InterventionBaseURL,
		"record_file_path":        cfg.RecordFilePath,
		"persona_fallback_path":   cfg.PersonaFallbackPath,
		"log_file_path":           cfg.LogFilePath,
		"debug":                   cfg.Debug,
	}
}
