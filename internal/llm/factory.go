package llm

import (
	"context"
	"fmt"
	"time"
)

// Config selects and configures a provider.
type Config struct {
	Provider string // "gemini", "mock" or empty
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// New builds the configured provider. An empty provider name returns a nil
// Provider, which callers treat as "offline".
func New(ctx context.Context, cfg Config) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case "":
		return nil, nil
	case "gemini":
		p, err = NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	case "mock":
		p = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}
	return p, nil
}

type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout bounds every Generate call of p.
func WithTimeout(p Provider, d time.Duration) Provider {
	return &timeoutProvider{inner: p, timeout: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
