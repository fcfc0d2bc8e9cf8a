package command

import (
	"context"
	"sync"
	"time"
)

// Call is one invocation recorded by Fake.
type Call struct {
	Name    string
	Args    []string
	Timeout time.Duration
}

// Fake is a scripted Runner for tests. Handler, when set, decides each
// result; otherwise every command succeeds with empty output.
type Fake struct {
	mu      sync.Mutex
	calls   []Call
	Handler func(name string, args []string) (Result, error)
}

// Run implements Runner.
func (f *Fake) Run(_ context.Context, name string, args []string, timeout time.Duration) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...), Timeout: timeout})
	h := f.Handler
	f.mu.Unlock()
	if h == nil {
		return Result{}, nil
	}
	return h(name, args)
}

// Calls returns a copy of the recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
