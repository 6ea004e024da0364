package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// tokenPayload is the JSON shape a SecureString may use for the API key.
type tokenPayload struct {
	Token string `json:"token"`
}

// KeyResolver returns the model API key. A static key always wins; otherwise
// the key is read from the named parameter. A successful lookup is cached for
// the process lifetime, a failed one is retried on the next call.
type KeyResolver struct {
	static    string
	getter    Getter
	paramName string

	mu     sync.Mutex
	cached string
}

// NewKeyResolver builds a resolver. getter may be nil when paramName is empty.
func NewKeyResolver(static string, getter Getter, paramName string) (*KeyResolver, error) {
	paramName = strings.TrimSpace(paramName)
	if paramName != "" && getter == nil {
		return nil, errors.New("paramstore: getter must not be nil when a parameter name is set")
	}
	return &KeyResolver{
		static:    strings.TrimSpace(static),
		getter:    getter,
		paramName: paramName,
	}, nil
}

// APIKey returns "" with a nil error when no key source is configured.
func (r *KeyResolver) APIKey(ctx context.Context) (string, error) {
	if r.static != "" {
		return r.static, nil
	}
	if r.paramName == "" {
		return "", nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cached != "" {
		return r.cached, nil
	}
	key, err := fetchAPIKey(ctx, r.getter, r.paramName)
	if err != nil {
		return "", err
	}
	r.cached = key
	return key, nil
}

func fetchAPIKey(ctx context.Context, getter Getter, name string) (string, error) {
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch api key: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var tp tokenPayload
		if err := json.Unmarshal([]byte(raw), &tp); err != nil {
			return "", fmt.Errorf("paramstore: unmarshal api key value as JSON: %w", err)
		}
		raw = strings.TrimSpace(tp.Token)
	}
	if raw == "" {
		return "", errors.New("paramstore: api key is empty")
	}
	return raw, nil
}
