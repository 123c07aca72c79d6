package helpers

import (
	"context"
	"sync"
	"time"

	"github.com/kode4food/renewal/internal/genai"
)

// MockGenerator is a scripted genai.Generator keyed by system prompt
type MockGenerator struct {
	responses map[string]string
	errors    map[string]error
	delays    map[string]time.Duration
	users     map[string][]string
	temps     map[string][]float64
	invoked   []string
	mu        sync.Mutex
}

var _ genai.Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a generator that returns empty text until
// responses are configured
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		responses: map[string]string{},
		errors:    map[string]error{},
		delays:    map[string]time.Duration{},
		users:     map[string][]string{},
		temps:     map[string][]float64{},
	}
}

// Generate records the call and returns the configured response or error
func (g *MockGenerator) Generate(
	ctx context.Context, system, user string, temperature float64,
) (string, error) {
	g.mu.Lock()
	g.invoked = append(g.invoked, system)
	g.users[system] = append(g.users[system], user)
	g.temps[system] = append(g.temps[system], temperature)
	delay := g.delays[system]
	err := g.errors[system]
	res := g.responses[system]
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return res, nil
}

// GenerateJSON records the call and parses the configured response
func (g *MockGenerator) GenerateJSON(
	ctx context.Context, system, user string,
) (genai.Object, error) {
	text, err := g.Generate(ctx, system, user, genai.DefaultJSONTemperature)
	if err != nil {
		return genai.Object{}, err
	}
	if text == "" {
		text = "{}"
	}
	return genai.ParseJSON(text), nil
}

// SetResponse configures the text returned for a system prompt
func (g *MockGenerator) SetResponse(system, text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses[system] = text
}

// SetError configures an error for a system prompt
func (g *MockGenerator) SetError(system string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errors[system] = err
}

// SetDelay makes calls for a system prompt wait before answering
func (g *MockGenerator) SetDelay(system string, d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delays[system] = d
}

// CallCount returns how many times a system prompt was used
func (g *MockGenerator) CallCount(system string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.users[system])
}

// TotalCalls returns the number of generation requests of any kind
func (g *MockGenerator) TotalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.invoked)
}

// LastUser returns the most recent user prompt sent with a system prompt
func (g *MockGenerator) LastUser(system string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	users := g.users[system]
	if len(users) == 0 {
		return ""
	}
	return users[len(users)-1]
}

// Temperatures returns the temperatures used with a system prompt
func (g *MockGenerator) Temperatures(system string) []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]float64(nil), g.temps[system]...)
}
