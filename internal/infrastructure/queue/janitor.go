package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tubehub/user-service/internal/core/ports"
)

const (
	defaultWorkers = 2
	channelBuffer  = 128
	deleteTimeout  = 30 * time.Second
)

// Janitor deletes superseded media objects on a fixed set of workers. A
// public id always lands on the same worker.
type Janitor struct {
	workers []chan string
	store   ports.MediaStore
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewJanitor creates a Janitor with numWorkers workers. If numWorkers <= 0,
// defaultWorkers is used.
func NewJanitor(numWorkers int, store ports.MediaStore, log zerolog.Logger) *Janitor {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	j := &Janitor{
		workers: make([]chan string, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range j.workers {
		j.workers[i] = make(chan string, channelBuffer)
	}
	return j
}

// Start launches the workers. They drain their queues and exit once ctx is
// cancelled; Wait blocks until they have.
func (j *Janitor) Start(ctx context.Context) {
	for i, ch := range j.workers {
		j.wg.Add(1)
		go j.runWorker(ctx, i, ch)
	}
}

func (j *Janitor) Wait() {
	j.wg.Wait()
}

// Discard queues publicID for deletion without blocking. When the worker's
// queue is full the object is left behind and a warning is logged.
func (j *Janitor) Discard(publicID string) {
	if publicID == "" {
		return
	}
	select {
	case j.workers[j.shardIndex(publicID)] <- publicID:
	default:
		j.log.Warn().Str("public_id", publicID).Msg("janitor queue full, media not deleted")
	}
}

func (j *Janitor) shardIndex(publicID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(publicID))
	return int(h.Sum32() % uint32(len(j.workers)))
}

func (j *Janitor) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer j.wg.Done()
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case publicID := <-ch:
					j.delete(id, publicID)
				default:
					return
				}
			}
		case publicID := <-ch:
			j.delete(id, publicID)
		}
	}
}

// delete runs detached from the worker context so queued work survives
// shutdown.
func (j *Janitor) delete(worker int, publicID string) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	if err := j.store.Delete(ctx, publicID); err != nil {
		j.log.Error().Err(err).
			Str("public_id", publicID).
			Int("worker_id", worker).
			Msg("media delete failed")
		return
	}
	j.log.Debug().Str("public_id", publicID).Int("worker_id", worker).Msg("media deleted")
}
