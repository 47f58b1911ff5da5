package phrases

import "strings"

// Language identifies one of the supported conversation languages
type Language string

const (
	English    Language = "en"
	Arabic     Language = "ar"
	Spanish    Language = "es"
	French     Language = "fr"
	German     Language = "de"
	Chinese    Language = "zh"
	Japanese   Language = "ja"
	Korean     Language = "ko"
	Portuguese Language = "pt"
	Russian    Language = "ru"
	Hindi      Language = "hi"
	Turkish    Language = "tr"

	// DefaultLanguage is used whenever a language is unknown or unset
	DefaultLanguage = English
)

var supportedLanguages = []Language{
	English, Arabic, Spanish, French, German, Chinese,
	Japanese, Korean, Portuguese, Russian, Hindi, Turkish,
}

// SupportedLanguages returns the enumerated language set in a fresh slice
func SupportedLanguages() []Language {
	out := make([]Language, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// IsSupported reports whether the language has its own phrase tables
func (l Language) IsSupported() bool {
	for _, s := range supportedLanguages {
		if s == l {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer
func (l Language) String() string {
	return string(l)
}

// ParseLanguage maps a language code such as "en", "EN" or "pt-BR" onto a
// supported Language. Anything unrecognised falls back to DefaultLanguage.
func ParseLanguage(code string) Language {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	lang := Language(code)
	if lang.IsSupported() {
		return lang
	}
	return DefaultLanguage
}
