package assistant

import (
	"fmt"

	"chatinput/config"
)

// New builds the backend selected by cfg.Backend.
//
// When a live backend cannot be built (for example a missing API key) New
// still returns a working Simulated responder, together with the error
// explaining the fallback so the caller can surface it.
func New(cfg *config.Config) (Responder, error) {
	simulated := NewSimulated(cfg.RespondingDelay())

	var (
		r   Responder
		err error
	)
	switch cfg.Backend {
	case config.BackendSimulated, "":
		return simulated, nil
	case config.BackendOllama:
		r, err = NewOllama(cfg.BaseURL)
	case config.BackendOpenAI:
		r, err = NewOpenAI(cfg.BaseURL, cfg.OpenAIKey)
	case config.BackendAnthropic:
		r, err = NewAnthropic(cfg.BaseURL, cfg.AnthropicKey)
	default:
		err = fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Assistant] %s backend unavailable, using simulated: %v", cfg.Backend, err)
		}
		return simulated, fmt.Errorf("%s backend unavailable, using simulated responses: %w", cfg.Backend, err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Assistant] Using %s backend", r.Name())
	}
	return r, nil
}
