package studio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedRenderer holds each render until its source is released.
type gatedRenderer struct {
	mu       sync.Mutex
	gates    map[string]chan struct{}
	rendered []string
	started  chan string
}

func newGatedRenderer(sources ...string) *gatedRenderer {
	g := &gatedRenderer{
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 16),
	}
	for _, src := range sources {
		g.gates[src] = make(chan struct{})
	}
	return g
}

func (g *gatedRenderer) release(src string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gates[src])
}

func (g *gatedRenderer) Render(src []byte) ([]byte, error) {
	g.mu.Lock()
	gate := g.gates[string(src)]
	g.rendered = append(g.rendered, string(src))
	g.mu.Unlock()
	g.started <- string(src)
	if gate != nil {
		<-gate
	}
	if string(src) == "broken" {
		return nil, errors.New("cannot decode")
	}
	return []byte("rendered:" + string(src)), nil
}

func (g *gatedRenderer) renderedSources() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.rendered...)
}

func waitStarted(t *testing.T, g *gatedRenderer, want string) {
	t.Helper()
	select {
	case got := <-g.started:
		require.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatalf("render of %s never started", want)
	}
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestStudio(t *testing.T) {
	t.Run("empty slot", func(t *testing.T) {
		s := New(newGatedRenderer())
		r := s.Latest()
		assert.Equal(t, Empty, r.State)
		assert.Nil(t, r.Data)
	})

	t.Run("single submission", func(t *testing.T) {
		s := New(newGatedRenderer())
		ticket := s.Submit([]byte("a"))
		assert.Equal(t, uint64(1), ticket.Seq)

		r, err := s.Wait(waitCtx(t), ticket.Seq)
		require.NoError(t, err)
		assert.Equal(t, Ready, r.State)
		assert.Equal(t, []byte("rendered:a"), r.Data)
		assert.Equal(t, ticket, r.Ticket)
	})

	t.Run("in-flight render of a superseded source is discarded", func(t *testing.T) {
		g := newGatedRenderer("first", "second")
		s := New(g)

		first := s.Submit([]byte("first"))
		waitStarted(t, g, "first")
		second := s.Submit([]byte("second"))
		assert.Greater(t, second.Seq, first.Seq)
		assert.NotEqual(t, first.ID, second.ID)

		g.release("first")
		waitStarted(t, g, "second")
		latest := s.Latest()
		assert.Equal(t, Pending, latest.State)
		assert.Equal(t, second, latest.Ticket)
		assert.Nil(t, latest.Data)

		g.release("second")
		r, err := s.Wait(waitCtx(t), second.Seq)
		require.NoError(t, err)
		assert.Equal(t, []byte("rendered:second"), r.Data)
		assert.Equal(t, second, r.Ticket)
	})

	t.Run("sources superseded before starting are never rendered", func(t *testing.T) {
		g := newGatedRenderer("first")
		s := New(g)

		s.Submit([]byte("first"))
		waitStarted(t, g, "first")
		s.Submit([]byte("second"))
		third := s.Submit([]byte("third"))

		g.release("first")
		r, err := s.Wait(waitCtx(t), third.Seq)
		require.NoError(t, err)
		assert.Equal(t, []byte("rendered:third"), r.Data)

		s.Drain()
		assert.Equal(t, []string{"first", "third"}, g.renderedSources())
	})

	t.Run("waiting on a superseded submission", func(t *testing.T) {
		g := newGatedRenderer("old")
		s := New(g)
		old := s.Submit([]byte("old"))
		s.Submit([]byte("new"))

		_, err := s.Wait(waitCtx(t), old.Seq)
		assert.ErrorIs(t, err, ErrSuperseded)

		g.release("old")
		s.Drain()
		assert.Equal(t, []byte("rendered:new"), s.Latest().Data)
	})

	t.Run("failed render leaves the slot empty", func(t *testing.T) {
		s := New(newGatedRenderer())
		s.Submit([]byte("good"))
		s.Drain()

		ticket := s.Submit([]byte("broken"))
		r, err := s.Wait(waitCtx(t), ticket.Seq)
		require.NoError(t, err)
		assert.Equal(t, Failed, r.State)
		assert.Error(t, r.Err)
		assert.Nil(t, r.Data)
	})

	t.Run("wait honours context", func(t *testing.T) {
		g := newGatedRenderer("slow")
		s := New(g)
		ticket := s.Submit([]byte("slow"))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := s.Wait(ctx, ticket.Seq)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		g.release("slow")
		s.Drain()
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "unknown", State(9).String())
}
