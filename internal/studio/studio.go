package studio

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSuperseded = errors.New("submission superseded by a newer source")

type State int

const (
	Empty State = iota
	Pending
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Renderer produces the finished mock-up for a source image.
type Renderer interface {
	Render(src []byte) ([]byte, error)
}

// Ticket identifies one submitted source.
type Ticket struct {
	ID  uuid.UUID
	Seq uint64
}

type Result struct {
	Ticket
	State     State
	Data      []byte
	Err       error
	Completed time.Time
}

type job struct {
	ticket Ticket
	src    []byte
}

// Studio owns the single output slot. Every Submit supersedes the previous
// source: whichever source was submitted last is the only one allowed to
// fill the slot. Renders run one at a time on a single worker; a source
// superseded before its render starts is never rendered at all.
type Studio struct {
	renderer Renderer

	mu      sync.Mutex
	seq     uint64
	current Result
	changed chan struct{}
	next    *job
	running bool

	inflight sync.WaitGroup
}

func New(renderer Renderer) *Studio {
	return &Studio{
		renderer: renderer,
		changed:  make(chan struct{}),
	}
}

// Submit starts rendering src in the background and returns its ticket.
func (s *Studio) Submit(src []byte) Ticket {
	s.mu.Lock()
	s.seq++
	t := Ticket{ID: uuid.New(), Seq: s.seq}
	s.current = Result{Ticket: t, State: Pending}
	s.broadcast()
	if s.next != nil {
		log.Printf("Dropping unstarted render for %s (seq=%d)", s.next.ticket.ID, s.next.ticket.Seq)
	}
	s.next = &job{ticket: t, src: src}
	if !s.running {
		s.running = true
		s.inflight.Add(1)
		go s.worker()
	}
	s.mu.Unlock()
	return t
}

// worker renders queued sources until none is waiting.
func (s *Studio) worker() {
	defer s.inflight.Done()
	for {
		s.mu.Lock()
		j := s.next
		s.next = nil
		if j == nil {
			s.running = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		data, err := s.renderer.Render(j.src)
		s.settle(j.ticket, data, err)
	}
}

func (s *Studio) settle(t Ticket, data []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Seq != s.seq {
		log.Printf("Discarding result for %s (seq=%d, current=%d)", t.ID, t.Seq, s.seq)
		return
	}

	s.current.Completed = time.Now()
	if err != nil {
		log.Printf("Render failed for %s: %v", t.ID, err)
		s.current.State = Failed
		s.current.Err = err
	} else {
		s.current.State = Ready
		s.current.Data = data
	}
	s.broadcast()
}

// broadcast wakes every Wait; callers hold mu.
func (s *Studio) broadcast() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Latest returns the slot contents for the most recent submission.
func (s *Studio) Latest() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Wait blocks until the submission with the given sequence number settles.
// It returns ErrSuperseded as soon as a newer source has been submitted.
func (s *Studio) Wait(ctx context.Context, seq uint64) (Result, error) {
	for {
		s.mu.Lock()
		if seq != s.seq {
			s.mu.Unlock()
			return Result{}, ErrSuperseded
		}
		if s.current.State != Pending {
			r := s.current
			s.mu.Unlock()
			return r, nil
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-ch:
		}
	}
}

// Drain blocks until the worker has gone idle, including any render whose
// result is being discarded.
func (s *Studio) Drain() {
	s.inflight.Wait()
}
