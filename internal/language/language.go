// Package language holds the per-language text normalisation resources:
// stopword lists, stemmers and sentence splitters. Unknown languages map to
// Unsupported, which degrades every resource to identity behaviour.
package language

import "strings"

// Language is a supported document language.
type Language int

const (
	Unsupported Language = iota
	English
	French
	Italian
	Spanish
	Portuguese
)

var codes = map[Language]string{
	English:    "en",
	French:     "fr",
	Italian:    "it",
	Spanish:    "es",
	Portuguese: "pt",
}

var names = map[Language]string{
	English:    "english",
	French:     "french",
	Italian:    "italian",
	Spanish:    "spanish",
	Portuguese: "portuguese",
}

// Parse maps an ISO 639-1 code (optionally with a region, "pt-BR") to a Language.
func Parse(code string) Language {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	for l, c := range codes {
		if c == code {
			return l
		}
	}
	return Unsupported
}

// Code returns the ISO 639-1 code, or "" for Unsupported.
func (l Language) Code() string { return codes[l] }

// Name returns the English name of the language, or "unsupported".
func (l Language) Name() string {
	if n, ok := names[l]; ok {
		return n
	}
	return "unsupported"
}

func (l Language) String() string { return l.Name() }

// Supported lists every language with dedicated resources.
func Supported() []Language {
	return []Language{English, French, Italian, Spanish, Portuguese}
}
