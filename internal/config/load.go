package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPath is the configuration file consulted when --config is not given.
const DefaultPath = "config.json"

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
// Values may be overridden through GLOSA_* environment variables.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath := strings.TrimSpace(explicitPath)
	if resolvedPath == "" {
		resolvedPath = DefaultPath
	}

	base := Default()

	v := viper.New()
	v.SetConfigFile(resolvedPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("GLOSA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	applyDefaults(v, base)

	exists := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			exists = false
		} else {
			return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
		}
	}

	cfg := base
	if err := v.Unmarshal(&cfg); err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Loaded{}, fmt.Errorf("validate config %q: %w", resolvedPath, err)
	}
	if !exists {
		warnings = append([]Warning{{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		}}, warnings...)
	}

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   exists,
	}, nil
}

// applyDefaults registers every leaf key so partial config files inherit the
// base values. Registration also makes the key visible to AutomaticEnv:
// viper only consults GLOSA_* variables for keys it already knows, so a key
// without a default here would silently ignore its env override.
func applyDefaults(v *viper.Viper, base Config) {
	v.SetDefault("discord.token", base.Discord.Token)
	v.SetDefault("discord.prefix", base.Discord.Prefix)
	v.SetDefault("speech.language", base.Speech.Language)
	v.SetDefault("speech.alternatives", base.Speech.Alternatives)
	v.SetDefault("speech.sample_rate", base.Speech.SampleRate)
	v.SetDefault("speech.punctuation", base.Speech.Punctuation)
	v.SetDefault("speech.model", base.Speech.Model)
	v.SetDefault("vad.aggressiveness", base.VAD.Aggressiveness)
	v.SetDefault("vad.frame_ms", base.VAD.FrameMS)
	v.SetDefault("vad.padding_ms", base.VAD.PaddingMS)
	v.SetDefault("vad.silence_ms", base.VAD.SilenceMS)
	v.SetDefault("vad.max_utterance_ms", base.VAD.MaxUtteranceMS)
	v.SetDefault("translate.enable", base.Translate.Enable)
	v.SetDefault("translate.targets", base.Translate.Targets)
	v.SetDefault("google.credentials", base.Google.Credentials)
	v.SetDefault("google.speech_endpoint", base.Google.SpeechEndpoint)
	v.SetDefault("transcript.capitalize_sentences", base.Transcript.CapitalizeSentences)
	v.SetDefault("vocab.global", base.Vocab.GlobalSets)
	v.SetDefault("vocab.sets", base.Vocab.Sets)
	v.SetDefault("vocab.max_phrases", base.Vocab.MaxPhrases)
	v.SetDefault("store.enable", base.Store.Enable)
	v.SetDefault("store.path", base.Store.Path)
	v.SetDefault("paths.temp_audio_dir", base.Paths.TempAudioDir)
	v.SetDefault("paths.logs_dir", base.Paths.LogsDir)
	v.SetDefault("limits.message_rate", base.Limits.MessageRate)
	v.SetDefault("limits.message_burst", base.Limits.MessageBurst)
	v.SetDefault("limits.recognize_workers", base.Limits.RecognizeWorkers)
	v.SetDefault("logging.level", base.Logging.Level)
	v.SetDefault("logging.max_size_mb", base.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", base.Logging.MaxBackups)
	v.SetDefault("debug.audio_dump", base.Debug.AudioDump)
	v.SetDefault("debug.speech_dump", base.Debug.SpeechDump)
}
