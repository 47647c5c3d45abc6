package gitter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/gitterclaw/pkg/gitter/gittertest"
)

const testToken = "test-token"

func newFake(t *testing.T) *gittertest.Server {
	t.Helper()
	return gittertest.NewServer(t)
}

func testConfig(srv *gittertest.Server) Config {
	return Config{
		Token:     testToken,
		RESTURL:   srv.RESTURL(),
		StreamURL: srv.StreamURL(),
		Timeout:   5 * time.Second,
	}
}

func testClient(t *testing.T, srv *gittertest.Server, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), testConfig(srv), opts...)
	require.NoError(t, err)
	return client
}

// fakeClock records sleeps and advances its own time instead of waiting.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}
