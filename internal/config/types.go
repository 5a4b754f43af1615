// Package config resolves, parses, validates, and defaults glosa configuration.
package config

// Config is the fully materialized runtime configuration used by glosa.
type Config struct {
	Discord    DiscordConfig    `mapstructure:"discord"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	VAD        VADConfig        `mapstructure:"vad"`
	Translate  TranslateConfig  `mapstructure:"translate"`
	Google     GoogleConfig     `mapstructure:"google"`
	Transcript TranscriptConfig `mapstructure:"transcript"`
	Vocab      VocabConfig      `mapstructure:"vocab"`
	Store      StoreConfig      `mapstructure:"store"`
	Paths      PathsConfig      `mapstructure:"paths"`
	Limits     LimitsConfig     `mapstructure:"limits"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Debug      DebugConfig      `mapstructure:"debug"`
}

// DiscordConfig controls gateway authentication and the command prefix.
type DiscordConfig struct {
	Token  string `mapstructure:"token"`
	Prefix string `mapstructure:"prefix"`
}

// SpeechConfig controls request-level hints passed to Speech-to-Text.
type SpeechConfig struct {
	Language     string   `mapstructure:"language"`
	Alternatives []string `mapstructure:"alternatives"`
	SampleRate   int      `mapstructure:"sample_rate"`
	Punctuation  bool     `mapstructure:"punctuation"`
	Model        string   `mapstructure:"model"`
}

// VADConfig controls voice-activity detection and utterance segmentation.
type VADConfig struct {
	Aggressiveness int `mapstructure:"aggressiveness"`
	FrameMS        int `mapstructure:"frame_ms"`
	PaddingMS      int `mapstructure:"padding_ms"`
	SilenceMS      int `mapstructure:"silence_ms"`
	MaxUtteranceMS int `mapstructure:"max_utterance_ms"`
}

// TranslateConfig controls post-recognition translation routing.
type TranslateConfig struct {
	Enable  bool                       `mapstructure:"enable"`
	Targets map[string]TranslateTarget `mapstructure:"targets"`
}

// TranslateTarget maps one detected language to its translation target.
type TranslateTarget struct {
	Target string `mapstructure:"target"`
	Name   string `mapstructure:"name"`
}

// GoogleConfig locates the service-account credentials and speech endpoint.
type GoogleConfig struct {
	Credentials    string `mapstructure:"credentials"`
	SpeechEndpoint string `mapstructure:"speech_endpoint"`
}

// TranscriptConfig controls transcript assembly formatting.
type TranscriptConfig struct {
	CapitalizeSentences bool `mapstructure:"capitalize_sentences"`
}

// VocabConfig controls enabled speech phrase sets and dedupe limits.
type VocabConfig struct {
	GlobalSets []string            `mapstructure:"global"`
	Sets       map[string]VocabSet `mapstructure:"sets"`
	MaxPhrases int                 `mapstructure:"max_phrases"`
}

// VocabSet is one named phrase group with a shared boost value.
type VocabSet struct {
	Boost   float64  `mapstructure:"boost"`
	Phrases []string `mapstructure:"phrases"`
}

// StoreConfig controls the transcript history database.
type StoreConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// PathsConfig locates scratch and log directories.
type PathsConfig struct {
	TempAudioDir string `mapstructure:"temp_audio_dir"`
	LogsDir      string `mapstructure:"logs_dir"`
}

// LimitsConfig bounds outbound Discord traffic and recognition concurrency.
type LimitsConfig struct {
	MessageRate      float64 `mapstructure:"message_rate"`
	MessageBurst     int     `mapstructure:"message_burst"`
	RecognizeWorkers int     `mapstructure:"recognize_workers"`
}

// LoggingConfig controls log level and file rotation bounds.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	AudioDump  bool `mapstructure:"audio_dump"`
	SpeechDump bool `mapstructure:"speech_dump"`
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}

// SpeechPhrase is the normalized phrase payload sent to the recognizer.
type SpeechPhrase struct {
	Phrase string
	Boost  float32
}
