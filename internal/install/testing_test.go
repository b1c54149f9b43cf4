package install

import (
	"context"
	"strings"
	"sync"
)

// fakeRunner records commands and answers Output calls from a table.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	outputs map[string]string
	fail    map[string]error
	onRun   func(args []string) error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: map[string]string{}, fail: map[string]error{}}
}

func (f *fakeRunner) record(name string, args []string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)
	return call
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	call := f.record(name, args)
	if err, ok := f.fail[name]; ok {
		return err
	}
	if f.onRun != nil {
		return f.onRun(call)
	}
	return nil
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) (string, error) {
	f.record(name, args)
	if err, ok := f.fail[name]; ok {
		return "", err
	}
	return f.outputs[name], nil
}

func (f *fakeRunner) commandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		lines = append(lines, strings.Join(c, " "))
	}
	return lines
}
