package usecase

import "loops-assistant/internal/domain"

const (
	sinhalaBlockStart = '\u0D80'
	sinhalaBlockEnd   = '\u0DFF'
)

// DetectLanguage returns Sinhala when text contains any code point from the
// Sinhala block, English otherwise. Mixed-script input counts as Sinhala.
func DetectLanguage(text string) domain.Language {
	for _, r := range text {
		if r >= sinhalaBlockStart && r <= sinhalaBlockEnd {
			return domain.LanguageSinhala
		}
	}
	return domain.LanguageEnglish
}

// resolveLanguage prefers an explicit, supported tag from the caller.
func resolveLanguage(requested, message string) domain.Language {
	if lang, ok := domain.ParseLanguage(requested); ok {
		return lang
	}
	return DetectLanguage(message)
}
