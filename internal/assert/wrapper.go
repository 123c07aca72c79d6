package assert

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/renewal/internal/config"
	"github.com/kode4food/renewal/internal/engine"
	"github.com/kode4food/renewal/pkg/api"
)

// Wrapper wraps testify assertions with renewal-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
}

// DefaultRetryInterval is the default polling interval for Eventually checks
const DefaultRetryInterval = 10 * time.Millisecond

// New creates a new test assertion wrapper
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
	}
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.APIPort > 0 && cfg.APIPort <= config.MaxTCPPort)
	w.True(cfg.HistoryLimit > 0)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	if w.Error(err) && contains != "" {
		w.Contains(err.Error(), contains)
	}
}

// RunTerminal asserts that a run ended on the expected terminal node
func (w *Wrapper) RunTerminal(st api.SharedState, expected api.Node) {
	w.Helper()
	w.True(engine.IsTerminal(st.CurrentNode),
		"%s is not a terminal node", st.CurrentNode)
	w.Equal(expected, st.CurrentNode)
}

// AuditTrailHas asserts that some audit trail entry starts with prefix
func (w *Wrapper) AuditTrailHas(st api.SharedState, prefix string) {
	w.Helper()
	for _, e := range st.AuditTrail {
		if strings.HasPrefix(e, prefix) {
			return
		}
	}
	w.Failf("audit entry not found", "no entry starts with %q in %v",
		prefix, st.AuditTrail)
}

// Eventually runs a condition repeatedly until it passes or times out
func (w *Wrapper) Eventually(
	condition func() bool, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(DefaultRetryInterval)
	}
	w.Fail(msg, args...)
}
