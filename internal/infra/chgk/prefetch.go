package chgk

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jee-key/brain-blast-bot/internal/domain"
)

// Source produces random questions.
type Source interface {
	Random(ctx context.Context) (domain.Question, error)
}

// Prefetcher keeps a small buffer of questions topped up in the background, so
// starting a round usually does not wait on the remote feed. On a cold buffer
// it falls through to a direct fetch.
type Prefetcher struct {
	src Source
	buf chan domain.Question

	fillMu sync.Mutex
}

func NewPrefetcher(src Source, size int) *Prefetcher {
	if size <= 0 {
		size = 3
	}
	p := &Prefetcher{
		src: src,
		buf: make(chan domain.Question, size),
	}
	go p.topUp()
	return p
}

// Fetch returns the next question, preferring the prefetched buffer.
func (p *Prefetcher) Fetch(ctx context.Context) (domain.Question, error) {
	select {
	case q := <-p.buf:
		go p.topUp()
		return q, nil
	default:
	}

	q, err := p.src.Random(ctx)
	go p.topUp()
	return q, err
}

// topUp refills the buffer to capacity. A single filler runs at a time; extra
// callers return immediately.
func (p *Prefetcher) topUp() {
	if !p.fillMu.TryLock() {
		return
	}
	defer p.fillMu.Unlock()

	missing := cap(p.buf) - len(p.buf)
	if missing <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for i := 0; i < missing; i++ {
		g.Go(func() error {
			q, err := p.src.Random(ctx)
			if err != nil {
				return err
			}
			select {
			case p.buf <- q:
			default:
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("[chgk] prefetch: %v", err)
	}
}
