package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"loops-assistant/internal/config"
	"loops-assistant/internal/domain"
	"loops-assistant/internal/widget"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "chat server base URL")
	lang := flag.String("lang", "en", "initial reply language (en or si)")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "err", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
	if err != nil {
		slog.Error("failed to start readline", "err", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	logger := config.NewLogger(os.Stderr, slog.LevelWarn)

	client, err := widget.NewClient(*server)
	if err != nil {
		logger.Error("failed to create chat client", "err", err)
		os.Exit(1)
	}
	p := &printer{w: rl.Stdout()}
	session, err := widget.NewSession(client,
		widget.WithLanguage(domain.Language(*lang)),
		widget.OnChange(p.render),
	)
	if err != nil {
		logger.Error("failed to create session", "err", err)
		os.Exit(1)
	}

	session.Open()
	rl.SetPrompt(prompt(session))
	run(context.Background(), rl, session, logger)
}

func run(ctx context.Context, rl *readline.Instance, session *widget.Session, logger *slog.Logger) {
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			logger.Error("read input", "err", err)
			return
		}

		switch strings.TrimSpace(line) {
		case "/quit":
			return
		case "/lang":
			session.ToggleLanguage()
		case "/open":
			session.Open()
		case "/close":
			session.Close()
		default:
			if err := session.Send(ctx, line); errors.Is(err, widget.ErrClosed) {
				fmt.Fprintln(rl.Stdout(), "(chat is closed, type /open)")
			} else if err != nil {
				logger.Warn("chat request failed", "err", err)
			}
		}
		rl.SetPrompt(prompt(session))
	}
}

func prompt(s *widget.Session) string {
	label := "EN"
	if s.Language() == domain.LanguageSinhala {
		label = "සි"
	}
	return fmt.Sprintf("[%s] %s > ", label, s.Placeholder())
}

// printer writes each bubble once; a bubble whose text changes in place,
// like the greeting after a language switch, is printed again.
type printer struct {
	mu      sync.Mutex
	w       io.Writer
	printed []widget.Message
}

func (p *printer) render(msgs []widget.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, m := range msgs {
		if i < len(p.printed) && p.printed[i] == m {
			continue
		}
		who := "you"
		if m.Sender == widget.SenderBot {
			who = "bot"
		}
		fmt.Fprintf(p.w, "%s: %s\n", who, m.Text)
	}
	p.printed = append(p.printed[:0], msgs...)
}
