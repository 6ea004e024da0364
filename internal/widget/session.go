// Package widget holds the chat widget state machine: open/closed, reply
// language, the message list and the contact-fallback flag.
package widget

import (
	"context"
	"errors"
	"strings"
	"sync"

	"loops-assistant/internal/domain"
)

const (
	greetingEN    = "Hello! How can I help you today?"
	greetingSI    = "හෙලෝ! අද ඔබට මම කෙසේ උදව් කළ හැකිද?"
	placeholderEN = "Type a message..."
	placeholderSI = "ඔබේ පණිවිඩය ටයිප් කරන්න..."

	// ErrorReply is shown when a request fails before any reply arrives.
	ErrorReply = "Something went wrong."
)

var ErrClosed = errors.New("widget: session is closed")

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

type Message struct {
	Sender Sender
	Text   string
}

// Chatter is the chat endpoint as seen by the widget.
type Chatter interface {
	Chat(ctx context.Context, in domain.ChatRequest) (domain.ChatResponse, error)
}

type outcome struct {
	resp domain.ChatResponse
	err  error
}

// Session is safe for concurrent use. Bot replies are committed in the order
// their requests were sent, whatever order they arrive in.
type Session struct {
	client   Chatter
	onChange func([]Message)

	mu       sync.Mutex
	open     bool
	lang     domain.Language
	messages []Message
	fallback bool
	inFlight int
	nextSeq  uint64
	commit   uint64
	pending  map[uint64]outcome

	// notifyMu keeps OnChange calls in mutation order.
	notifyMu sync.Mutex
}

type SessionOption func(*Session)

// OnChange registers a callback that receives a snapshot after every
// mutation. It must not call Send, Toggle, Open, Close or ToggleLanguage.
func OnChange(fn func([]Message)) SessionOption {
	return func(s *Session) { s.onChange = fn }
}

// WithLanguage sets the initial language. Unknown tags are ignored.
func WithLanguage(lang domain.Language) SessionOption {
	return func(s *Session) {
		if l, ok := domain.ParseLanguage(string(lang)); ok {
			s.lang = l
		}
	}
}

func NewSession(client Chatter, opts ...SessionOption) (*Session, error) {
	if client == nil {
		return nil, errors.New("widget: client must not be nil")
	}
	s := &Session{
		client:  client,
		lang:    domain.LanguageEnglish,
		pending: make(map[uint64]outcome),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func greeting(lang domain.Language) Message {
	if lang == domain.LanguageSinhala {
		return Message{Sender: SenderBot, Text: greetingSI}
	}
	return Message{Sender: SenderBot, Text: greetingEN}
}

// Toggle opens a closed widget and closes an open one.
func (s *Session) Toggle() {
	s.mutate(func() {
		if s.open {
			s.open = false
			return
		}
		s.openLocked()
	})
}

func (s *Session) Open() {
	s.mutate(s.openLocked)
}

func (s *Session) Close() {
	s.mutate(func() { s.open = false })
}

func (s *Session) openLocked() {
	s.open = true
	if len(s.messages) == 0 {
		s.messages = append(s.messages, greeting(s.lang))
	}
}

// ToggleLanguage switches between English and Sinhala. A conversation that
// holds only the greeting gets the other language's greeting; anything else
// is left untranslated.
func (s *Session) ToggleLanguage() {
	s.mutate(func() {
		if s.lang == domain.LanguageEnglish {
			s.lang = domain.LanguageSinhala
		} else {
			s.lang = domain.LanguageEnglish
		}
		if len(s.messages) == 1 && s.messages[0].Sender == SenderBot {
			s.messages[0] = greeting(s.lang)
		}
	})
}

// Send appends the user bubble, posts the message and, once every earlier
// request has been committed, appends the reply. Blank input is ignored.
// The returned error is the request error, already shown as ErrorReply.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		seq uint64
		req domain.ChatRequest
	)
	closed := false
	s.mutate(func() {
		if !s.open {
			closed = true
			return
		}
		s.messages = append(s.messages, Message{Sender: SenderUser, Text: text})
		seq = s.nextSeq
		s.nextSeq++
		s.inFlight++
		req = domain.ChatRequest{
			Message:           text,
			Lang:              string(s.lang),
			FallbackTriggered: s.fallback,
		}
	})
	if closed {
		return ErrClosed
	}

	resp, err := s.client.Chat(ctx, req)

	s.mutate(func() {
		s.inFlight--
		s.pending[seq] = outcome{resp: resp, err: err}
		for {
			next, ok := s.pending[s.commit]
			if !ok {
				break
			}
			delete(s.pending, s.commit)
			s.commit++
			s.apply(next)
		}
	})
	return err
}

func (s *Session) apply(o outcome) {
	if o.err != nil {
		s.messages = append(s.messages, Message{Sender: SenderBot, Text: ErrorReply})
		return
	}
	if o.resp.Reply != "" {
		s.messages = append(s.messages, Message{Sender: SenderBot, Text: o.resp.Reply})
	}
	switch {
	case o.resp.Stop:
		s.fallback = false
	case o.resp.Fallback:
		s.fallback = true
	}
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Session) Language() domain.Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lang
}

// Sending reports whether any request is still in flight.
func (s *Session) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// FallbackMode reports whether the next send asks the server to look for
// contact details.
func (s *Session) FallbackMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback
}

func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func (s *Session) Placeholder() string {
	if s.Language() == domain.LanguageSinhala {
		return placeholderSI
	}
	return placeholderEN
}

// mutate runs fn under the state lock and hands the snapshot to OnChange
// before any later mutation can notify.
func (s *Session) mutate(fn func()) {
	s.mu.Lock()
	fn()
	if s.onChange == nil {
		s.mu.Unlock()
		return
	}
	snapshot := append([]Message(nil), s.messages...)
	s.notifyMu.Lock()
	s.mu.Unlock()

	defer s.notifyMu.Unlock()
	s.onChange(snapshot)
}
