package domain

// Language is a reply language tag accepted on the wire.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSinhala Language = "si"
)

// ParseLanguage reports whether s is a supported language tag.
func ParseLanguage(s string) (Language, bool) {
	switch Language(s) {
	case LanguageEnglish, LanguageSinhala:
		return Language(s), true
	default:
		return "", false
	}
}

// Name is the human-readable language name used inside prompts.
func (l Language) Name() string {
	if l == LanguageSinhala {
		return "Sinhala"
	}
	return "English"
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message           string `json:"message"`
	Lang              string `json:"lang,omitempty"`
	FallbackTriggered bool   `json:"fallbackTriggered,omitempty"`
}

// ChatResponse is the body returned by POST /api/chat. Error carries the
// error code on failures and is empty on success.
type ChatResponse struct {
	Reply    string `json:"reply"`
	Fallback bool   `json:"fallback,omitempty"`
	Stop     bool   `json:"stop,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ChatMessage is the provider-agnostic chat message shape used by the LLM
// integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest is a single stateless model invocation: one system
// instruction block plus the user's latest message.
type GenerationRequest struct {
	Model           string
	System          string
	User            string
	Temperature     float32
	MaxOutputTokens int32
	// JSONReply asks the provider to constrain output to the assistant reply
	// object {"reply": string, "needs_contact": bool}.
	JSONReply bool
}
