// Package strategy holds the built-in trading profiles: the system prompt
// handed to the decision oracle plus an optional sizing fallback used when a
// proposal arrives without explicit sizing.
package strategy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"vigil/internal/decision"
)

// Strategy is one trading profile.
type Strategy struct {
	Name        string
	Description string
	// SystemPrompt frames the oracle conversation for this profile.
	SystemPrompt string
	// Sizing is consulted only when a proposal carries neither amount_usd
	// nor position_pct. Nil means no fallback.
	Sizing decision.SizingFunc
	// Features derives profile-specific structure from the market context
	// for embedding into the oracle payload. Nil means none.
	Features func(mctx decision.MarketContext) map[string]any
}

// Registry maps profile keys to strategies.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds or replaces the strategy under key.
func (r *Registry) Register(key string, s Strategy) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[key] = s
}

// Get resolves a profile key.
func (r *Registry) Get(key string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Strategy{}, fmt.Errorf("strategy: unknown profile %q (have %s)", key, strings.Join(r.names(), ", "))
	}
	return s, nil
}

// Names lists the registered profile keys sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	out := make([]string, 0, len(r.strategies))
	for k := range r.strategies {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
