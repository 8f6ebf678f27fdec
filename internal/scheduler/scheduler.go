// Package scheduler runs the embedding backfill loop. Items whose stored
// vector is missing or has a stale dimensionality (left behind by an
// embedding model migration) are re-embedded in the background so they stay
// visible to semantic search.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/embedding"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/model"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/search"
	"gorm.io/gorm"
)

type BackfillScheduler struct {
	db         *gorm.DB
	embedder   embedding.Embedder
	interval   time.Duration
	batchSize  int
	running    bool
	backfilled int64
	mu         sync.Mutex
	stopChan   chan struct{}
}

type Config struct {
	Interval  time.Duration
	BatchSize int
}

func NewBackfillScheduler(db *gorm.DB, embedder embedding.Embedder, cfg Config) *BackfillScheduler {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 20
	}

	return &BackfillScheduler{
		db:        db,
		embedder:  embedder,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		stopChan:  make(chan struct{}),
	}
}

func (s *BackfillScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("[Scheduler] Starting embedding backfill with interval %v", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Scheduler] Context cancelled, stopping")
			return
		case <-s.stopChan:
			log.Println("[Scheduler] Stop signal received")
			return
		case <-ticker.C:
			s.processBatch(ctx)
		}
	}
}

func (s *BackfillScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		close(s.stopChan)
		s.running = false
		log.Println("[Scheduler] Stopped")
	}
}

func (s *BackfillScheduler) processBatch(ctx context.Context) {
	var items []model.Item
	if err := s.db.WithContext(ctx).Order("updated_at ASC").Limit(s.batchSize * 10).Find(&items).Error; err != nil {
		log.Printf("[Scheduler] Error scanning items: %v", err)
		return
	}

	processed := 0
	for _, item := range items {
		if processed >= s.batchSize {
			break
		}
		if len(item.EmbeddingVector()) == embedding.Dimension {
			continue
		}

		vec, err := s.embedder.Embed(ctx, search.Normalize(item.Description))
		if err != nil {
			// Provider trouble affects the whole batch; retry next tick.
			log.Printf("[Scheduler] Error embedding item %s: %v", item.ID, err)
			return
		}
		if err := item.SetEmbedding(vec); err != nil {
			log.Printf("[Scheduler] Error encoding embedding for %s: %v", item.ID, err)
			continue
		}

		if err := s.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", item.ID).
			Update("embedding", item.Embedding).Error; err != nil {
			log.Printf("[Scheduler] Error saving embedding for %s: %v", item.ID, err)
			continue
		}

		processed++
		s.mu.Lock()
		s.backfilled++
		s.mu.Unlock()

		log.Printf("[Scheduler] Backfilled embedding for item %s", item.ID)

		// Small delay between items to avoid rate limiting
		time.Sleep(500 * time.Millisecond)
	}
}

// GetStatus returns current scheduler status
func (s *BackfillScheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]interface{}{
		"running":    s.running,
		"interval":   s.interval.String(),
		"batchSize":  s.batchSize,
		"backfilled": s.backfilled,
	}
}
