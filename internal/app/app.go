// Package app wires configuration into the chat and contact handlers.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"google.golang.org/api/option"

	"loops-assistant/handler"
	"loops-assistant/internal/config"
	"loops-assistant/internal/integrations/contactapi"
	"loops-assistant/internal/integrations/gemini"
	"loops-assistant/internal/integrations/openai"
	"loops-assistant/internal/integrations/paramstore"
	"loops-assistant/internal/repository"
	"loops-assistant/internal/usecase"
)

var loadAWSConfig = func(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx)
}

// App owns the handler and any clients that need releasing.
type App struct {
	handler *handler.Handler

	generator usecase.Generator
	recorder  usecase.ContactRecorder
	forwarder usecase.ContactForwarder
	closers   []io.Closer
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{}

	var awsCfg aws.Config
	if cfg.NeedsAWS() {
		var err error
		awsCfg, err = loadAWSConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: load AWS config: %w", err)
		}
	}

	var getter paramstore.Getter
	if cfg.APIKeyParam != "" {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("app: create SSM client: %w", err)
		}
		getter = ssmClient
	}
	creds, err := paramstore.NewKeyResolver(cfg.Credential(), getter, cfg.APIKeyParam)
	if err != nil {
		return nil, fmt.Errorf("app: create key resolver: %w", err)
	}

	switch cfg.ModelProvider {
	case config.ProviderOpenAI:
		var opts []openai.Option
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		a.generator = openai.NewClient(opts...)
	default:
		gc := gemini.NewClient(option.WithUserAgent("loops-assistant"))
		a.generator = gc
		a.closers = append(a.closers, gc)
	}

	if cfg.ContactTable != "" {
		store, err := repository.NewContactStore(awsdynamodb.NewFromConfig(awsCfg), cfg.ContactTable)
		if err != nil {
			return nil, fmt.Errorf("app: create contact store: %w", err)
		}
		a.recorder = store
	} else {
		a.recorder = repository.NewLogStore(logger)
	}

	contactService, err := usecase.NewContactService(a.recorder)
	if err != nil {
		return nil, fmt.Errorf("app: create contact service: %w", err)
	}

	a.forwarder = contactService
	if cfg.BaseURL != "" {
		fwd, err := contactapi.NewClient(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("app: create contact forwarder: %w", err)
		}
		a.forwarder = fwd
	}

	chatService, err := usecase.NewChatService(a.generator, creds, a.forwarder, cfg.Model(),
		usecase.WithMaxMessageLength(cfg.MaxMessageLength),
		usecase.WithChatLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("app: create chat service: %w", err)
	}

	a.handler, err = handler.NewHandler(chatService, contactService, logger)
	if err != nil {
		return nil, fmt.Errorf("app: create handler: %w", err)
	}
	logger.Info("app ready",
		"provider", cfg.ModelProvider,
		"model", cfg.Model(),
		"contact_table", cfg.ContactTable != "",
		"forward_url", cfg.BaseURL != "",
		"api_key_param", cfg.APIKeyParam != "",
	)
	return a, nil
}

func (a *App) Handler() *handler.Handler {
	return a.handler
}

func (a *App) Router() http.Handler {
	return a.handler.Router()
}

func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
