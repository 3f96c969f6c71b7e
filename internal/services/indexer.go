package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog/log"
)

type IndexJob struct {
	ClerkID string
	Text    string
}

type Indexer interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(job IndexJob) bool
	Index(ctx context.Context, job IndexJob) error
}

type indexer struct {
	index       SearchIndex
	embedder    GeminiService
	chunker     TextChunker
	jobQueues   []chan IndexJob
	concurrency int
	wg          sync.WaitGroup
	stopChan    chan struct{}
	stopOnce    sync.Once
}

func NewIndexer(index SearchIndex, embedder GeminiService, chunker TextChunker, concurrency, queueSize int) Indexer {
	if concurrency < 1 {
		concurrency = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}

	// One queue per worker. Jobs for a profile always land on the same queue,
	// so two quick re-uploads are indexed in the order they were enqueued.
	queues := make([]chan IndexJob, concurrency)
	perWorker := (queueSize + concurrency - 1) / concurrency
	for i := range queues {
		queues[i] = make(chan IndexJob, perWorker)
	}

	return &indexer{
		index:       index,
		embedder:    embedder,
		chunker:     chunker,
		jobQueues:   queues,
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
	}
}

// Start implements Indexer.
func (w *indexer) Start(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i)
	}
	log.Info().Int("workers", w.concurrency).Msg("Resume indexer started")
}

// Stop implements Indexer. Queued jobs that no worker picked up are dropped.
func (w *indexer) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	w.wg.Wait()
	log.Info().Msg("Resume indexer stopped")
}

// Enqueue implements Indexer. It never blocks: a full queue or a stopped
// indexer drops the job and reports false.
func (w *indexer) Enqueue(job IndexJob) bool {
	select {
	case <-w.stopChan:
		log.Warn().Str("clerk_id", job.ClerkID).Msg("Indexer stopped, job dropped")
		return false
	default:
	}

	select {
	case w.jobQueues[w.shard(job.ClerkID)] <- job:
		return true
	default:
		log.Warn().Str("clerk_id", job.ClerkID).Msg("Index queue full, job dropped")
		return false
	}
}

// Index implements Indexer. It replaces every indexed chunk of the profile.
func (w *indexer) Index(ctx context.Context, job IndexJob) error {
	chunks := w.chunker.Chunk(job.Text)

	embeddings := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := w.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d of %s: %w", i, job.ClerkID, err)
		}
		embeddings = append(embeddings, embedding)
	}

	if err := w.index.ReplaceProfileChunks(ctx, job.ClerkID, chunks, embeddings); err != nil {
		return err
	}

	log.Debug().Str("clerk_id", job.ClerkID).Int("chunks", len(chunks)).Msg("Profile indexed")
	return nil
}

func (w *indexer) shard(clerkID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(clerkID))
	return int(h.Sum32() % uint32(len(w.jobQueues)))
}

func (w *indexer) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	queue := w.jobQueues[workerID]

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case job := <-queue:
			if err := w.Index(ctx, job); err != nil {
				log.Error().Err(err).Int("worker", workerID).Str("clerk_id", job.ClerkID).Msg("Indexing failed")
			}
		}
	}
}
