package config

import (
	"fmt"
	"sort"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Discord.Prefix) == "" {
		return nil, fmt.Errorf("discord.prefix must not be empty")
	}
	if strings.TrimSpace(cfg.Discord.Token) == "" {
		warnings = append(warnings, Warning{Message: "discord.token is empty; the run command will fail"})
	}
	if strings.TrimSpace(cfg.Speech.Language) == "" {
		return nil, fmt.Errorf("speech.language must not be empty")
	}
	if cfg.Speech.SampleRate != 8000 && cfg.Speech.SampleRate != 16000 && cfg.Speech.SampleRate != 32000 && cfg.Speech.SampleRate != 48000 {
		return nil, fmt.Errorf("speech.sample_rate must be one of: 8000, 16000, 32000, 48000")
	}
	if cfg.VAD.Aggressiveness < 0 || cfg.VAD.Aggressiveness > 3 {
		return nil, fmt.Errorf("vad.aggressiveness must be in 0..3")
	}
	if cfg.VAD.FrameMS != 10 && cfg.VAD.FrameMS != 20 && cfg.VAD.FrameMS != 30 {
		return nil, fmt.Errorf("vad.frame_ms must be one of: 10, 20, 30")
	}
	if cfg.VAD.PaddingMS < cfg.VAD.FrameMS {
		return nil, fmt.Errorf("vad.padding_ms must be >= vad.frame_ms")
	}
	if cfg.VAD.SilenceMS < cfg.VAD.FrameMS {
		return nil, fmt.Errorf("vad.silence_ms must be >= vad.frame_ms")
	}
	if cfg.VAD.MaxUtteranceMS <= cfg.VAD.SilenceMS {
		return nil, fmt.Errorf("vad.max_utterance_ms must be > vad.silence_ms")
	}
	if strings.TrimSpace(cfg.Google.SpeechEndpoint) == "" {
		return nil, fmt.Errorf("google.speech_endpoint must not be empty")
	}
	if cfg.Translate.Enable {
		for lang, target := range cfg.Translate.Targets {
			if strings.TrimSpace(target.Target) == "" {
				return nil, fmt.Errorf("translate.targets.%s.target must not be empty", lang)
			}
		}
	}
	if cfg.Store.Enable && strings.TrimSpace(cfg.Store.Path) == "" {
		return nil, fmt.Errorf("store.path must not be empty when store.enable=true")
	}
	if cfg.Limits.MessageRate <= 0 {
		return nil, fmt.Errorf("limits.message_rate must be > 0")
	}
	if cfg.Limits.MessageBurst <= 0 {
		return nil, fmt.Errorf("limits.message_burst must be > 0")
	}
	if cfg.Limits.RecognizeWorkers <= 0 {
		return nil, fmt.Errorf("limits.recognize_workers must be > 0")
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		return nil, fmt.Errorf("logging.max_size_mb must be > 0")
	}
	if cfg.Logging.MaxBackups < 0 {
		return nil, fmt.Errorf("logging.max_backups must be >= 0")
	}
	if cfg.Vocab.MaxPhrases <= 0 {
		return nil, fmt.Errorf("vocab.max_phrases must be > 0")
	}

	_, vocabWarnings, err := BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, vocabWarnings...)

	return warnings, nil
}

// BuildSpeechPhrases merges enabled vocab sets into deterministic recognizer phrase payloads.
func BuildSpeechPhrases(cfg Config) ([]SpeechPhrase, []Warning, error) {
	enabledSets := cfg.Vocab.GlobalSets
	if len(enabledSets) == 0 {
		return nil, nil, nil
	}

	type candidate struct {
		boost float64
		from  string
	}

	warnings := make([]Warning, 0)
	selected := make(map[string]candidate)

	for _, name := range enabledSets {
		set, ok := cfg.Vocab.Sets[name]
		if !ok {
			return nil, nil, fmt.Errorf("vocab.global references unknown set %q", name)
		}
		for _, phrase := range set.Phrases {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			if existing, exists := selected[phrase]; exists {
				if set.Boost > existing.boost {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("phrase %q present in %q and %q; using higher boost %.2f", phrase, existing.from, name, set.Boost)})
					selected[phrase] = candidate{boost: set.Boost, from: name}
				}
				continue
			}
			selected[phrase] = candidate{boost: set.Boost, from: name}
		}
	}

	if len(selected) > cfg.Vocab.MaxPhrases {
		return nil, nil, fmt.Errorf("vocabulary phrase count %d exceeds vocab.max_phrases=%d", len(selected), cfg.Vocab.MaxPhrases)
	}

	phrases := make([]SpeechPhrase, 0, len(selected))
	for phrase, c := range selected {
		phrases = append(phrases, SpeechPhrase{Phrase: phrase, Boost: float32(c.boost)})
	}

	sort.Slice(phrases, func(i, j int) bool {
		if phrases[i].Phrase == phrases[j].Phrase {
			return phrases[i].Boost < phrases[j].Boost
		}
		return phrases[i].Phrase < phrases[j].Phrase
	})

	return phrases, warnings, nil
}
