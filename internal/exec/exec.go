// Package exec defines the execution strategy behind the public command
// endpoint. Real device execution and simulated/test executions share the
// same contract.
package exec

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Strategy runs one raw command and reports a human-readable result and
// whether it succeeded.
type Strategy interface {
	Execute(ctx context.Context, cmd string) (result string, ok bool)
}

// Simulated mimics device processing: 50-500ms of latency and a 10% failure
// rate, matching the behaviour the dashboard was built against.
type Simulated struct{}

func (Simulated) Execute(ctx context.Context, cmd string) (string, bool) {
	latency := time.Duration(50+rand.Intn(451)) * time.Millisecond
	select {
	case <-ctx.Done():
		return fmt.Sprintf("Failed to execute command: %s", cmd), false
	case <-time.After(latency):
	}

	if rand.Float64() < 0.1 {
		return fmt.Sprintf("Failed to execute command: %s", cmd), false
	}
	return fmt.Sprintf("Executed command: %s", cmd), true
}

// Fixed always yields the configured outcome; used in tests.
type Fixed struct {
	OK bool
}

func (f Fixed) Execute(_ context.Context, cmd string) (string, bool) {
	if !f.OK {
		return fmt.Sprintf("Failed to execute command: %s", cmd), false
	}
	return fmt.Sprintf("Executed command: %s", cmd), true
}
