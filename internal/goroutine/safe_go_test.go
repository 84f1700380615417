package goroutine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type captureLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureLogger) Errorf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, fmt.Sprintf(format, args...))
}

func (c *captureLogger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	log := &captureLogger{}
	rh := NewRecoveryHandler(log)

	rh.SafeGo(func() { panic("boom") })

	assert.Eventually(t, func() bool { return log.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRun_ReportsPanicAsFalse(t *testing.T) {
	log := &captureLogger{}
	rh := NewRecoveryHandler(log)

	assert.True(t, rh.Run(func() {}))
	assert.False(t, rh.Run(func() { panic("boom") }))
	assert.Equal(t, 1, log.count())
}
