package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Discord: DiscordConfig{
			Prefix: "!",
		},
		Speech: SpeechConfig{
			Language:     "es-ES",
			Alternatives: []string{"en-US"},
			SampleRate:   16000,
			Punctuation:  true,
		},
		VAD: VADConfig{
			Aggressiveness: 3,
			FrameMS:        30,
			PaddingMS:      300,
			SilenceMS:      900,
			MaxUtteranceMS: 15000,
		},
		Translate: TranslateConfig{
			Enable: true,
			Targets: map[string]TranslateTarget{
				"es": {Target: "en", Name: "Spanish"},
				"en": {Target: "es", Name: "English"},
			},
		},
		Google: GoogleConfig{
			Credentials:    "google_credentials.json",
			SpeechEndpoint: "speech.googleapis.com:443",
		},
		Transcript: TranscriptConfig{
			CapitalizeSentences: true,
		},
		Vocab: VocabConfig{
			GlobalSets: nil,
			Sets:       map[string]VocabSet{},
			MaxPhrases: 1024,
		},
		Store: StoreConfig{
			Enable: true,
			Path:   "glosa.db",
		},
		Paths: PathsConfig{
			TempAudioDir: "temp_audio",
			LogsDir:      "logs",
		},
		Limits: LimitsConfig{
			MessageRate:      1,
			MessageBurst:     5,
			RecognizeWorkers: 4,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Debug: DebugConfig{},
	}
}
