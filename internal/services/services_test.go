package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"genspecs/internal/llm/client"
)

// memoryRepository is an in-memory StorageRepository for tests.
type memoryRepository struct {
	mu      sync.Mutex
	entries map[string]string
	getErr  error
	putErr  error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{entries: make(map[string]string)}
}

func (r *memoryRepository) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return "", false, r.getErr
	}
	value, ok := r.entries[key]
	return value, ok, nil
}

func (r *memoryRepository) Put(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	r.entries[key] = value
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
	return nil
}

func (r *memoryRepository) get(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.entries[key]
	return value, ok
}

// staticCredentials satisfies CredentialProvider with a fixed key.
type staticCredentials struct {
	key   string
	valid bool
}

func (c staticCredentials) CurrentKey() (string, bool) { return c.key, c.valid }

// scriptedCompleter returns canned content and counts invocations.
type scriptedCompleter struct {
	mu      sync.Mutex
	calls   int
	content string
	err     error

	// release, when set, blocks every completion until closed.
	release chan struct{}
}

func (c *scriptedCompleter) Complete(ctx context.Context, _, _ string) (string, error) {
	c.mu.Lock()
	c.calls++
	release := c.release
	c.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.content, c.err
}

func (c *scriptedCompleter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func factoryFor(completer client.Completer) CompleterFactory {
	return func(context.Context, string) (client.Completer, error) {
		return completer, nil
	}
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
