// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary is the keyword set the inbound classifier matches against.
// It is an immutable value injected at construction so tests can swap
// vocabularies without touching package state.
type Vocabulary struct {
	OptIn  []string `yaml:"opt_in"`
	OptOut []string `yaml:"opt_out"`
	Help   []string `yaml:"help"`
}

// Rotation holds the default anti-repetition settings applied when a
// journal does not override them.
type Rotation struct {
	AvoidRepeatDays     int  `yaml:"avoid_repeat_days"`
	AvoidCategoryRepeat int  `yaml:"avoid_category_repeat"`
	PrioritizeUnused    bool `yaml:"prioritize_unused"`
}

type Config struct {
	Vocabulary Vocabulary `yaml:"vocabulary"`
	Rotation   Rotation   `yaml:"rotation"`
}

// Default returns the built-in configuration used when no yaml file is
// provided.
func Default() Config {
	return Config{
		Vocabulary: Vocabulary{
			OptIn:  []string{"yes", "y", "start", "subscribe", "optin", "opt-in"},
			OptOut: []string{"stop", "unsubscribe", "cancel", "end", "quit", "optout", "opt-out"},
			Help:   []string{"help", "info", "support"},
		},
		Rotation: Rotation{
			AvoidRepeatDays:     30,
			AvoidCategoryRepeat: 2,
			PrioritizeUnused:    true,
		},
	}
}

// Load reads a yaml config file, filling any missing section from the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.Vocabulary.OptIn) == 0 {
		cfg.Vocabulary.OptIn = Default().Vocabulary.OptIn
	}
	if len(cfg.Vocabulary.OptOut) == 0 {
		cfg.Vocabulary.OptOut = Default().Vocabulary.OptOut
	}
	if len(cfg.Vocabulary.Help) == 0 {
		cfg.Vocabulary.Help = Default().Vocabulary.Help
	}
	if cfg.Rotation.AvoidRepeatDays == 0 {
		cfg.Rotation.AvoidRepeatDays = 30
	}
	if cfg.Rotation.AvoidCategoryRepeat == 0 {
		cfg.Rotation.AvoidCategoryRepeat = 2
	}
	return cfg, nil
}

var joinPattern = regexp.MustCompile(`^join\s+(\w+)$`)

// MatchOptIn reports whether the trimmed, lowercased text is an opt-in
// keyword.
func (v Vocabulary) MatchOptIn(text string) bool {
	return matchKeyword(v.OptIn, text)
}

func (v Vocabulary) MatchOptOut(text string) bool {
	return matchKeyword(v.OptOut, text)
}

func (v Vocabulary) MatchHelp(text string) bool {
	return matchKeyword(v.Help, text)
}

// MatchJoin extracts the journal keyword from a "join <keyword>"
// message, or returns false.
func (v Vocabulary) MatchJoin(text string) (string, bool) {
	m := joinPattern.FindStringSubmatch(normalize(text))
	if m == nil {
		return "", false
	}
	return m[1], true
}

func matchKeyword(words []string, text string) bool {
	t := normalize(text)
	for _, w := range words {
		if t == w {
			return true
		}
	}
	return false
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
