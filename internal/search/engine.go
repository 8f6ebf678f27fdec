// Package search ranks approved found-item reports against a free-text
// query by embedding similarity.
package search

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/apperr"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/cache"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/embedding"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/model"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50

	// Queries are truncated before embedding to bound provider cost.
	maxQueryLen = 500

	embeddingCacheTTL = 24 * time.Hour
)

type Engine struct {
	db       *gorm.DB
	embedder embedding.Embedder
	cache    *cache.RedisCache
}

func NewEngine(db *gorm.DB, embedder embedding.Embedder, redisCache *cache.RedisCache) *Engine {
	return &Engine{
		db:       db,
		embedder: embedder,
		cache:    redisCache,
	}
}

// Result is one ranked candidate. MatchScore is 1 - cosine distance,
// clamped to [0,1].
type Result struct {
	Item       model.Item `json:"item"`
	MatchScore float64    `json:"match_score"`
}

// Normalize trims, lower-cases and truncates query text the same way
// item descriptions are normalized before embedding.
func Normalize(query string) string {
	query = strings.ToLower(strings.TrimSpace(query))
	runes := []rune(query)
	if len(runes) > maxQueryLen {
		query = string(runes[:maxQueryLen])
	}
	return query
}

// Search embeds the query and ranks approved, non-reunited items whose
// founder is not excludeUserID by cosine similarity, descending. Ties keep
// the scan order (implementation-defined). Zero matches is a valid empty
// result; an embedding failure fails the whole search.
func (e *Engine) Search(ctx context.Context, queryText, excludeUserID string, limit int) ([]Result, error) {
	normalized := Normalize(queryText)
	if normalized == "" {
		return nil, apperr.Validation("query text is required")
	}

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	queryVec, err := e.queryEmbedding(ctx, normalized)
	if err != nil {
		return nil, err
	}

	var items []model.Item
	scan := e.db.WithContext(ctx).
		Where("is_approved = ? AND reunited = ?", true, false)
	if excludeUserID != "" {
		scan = scan.Where("founder_id <> ?", excludeUserID)
	}
	if err := scan.Find(&items).Error; err != nil {
		return nil, apperr.Upstream("item scan", err)
	}

	results := make([]Result, 0, len(items))
	for _, item := range items {
		vec := item.EmbeddingVector()
		if len(vec) != len(queryVec) {
			// Missing or stale embedding; the backfill scheduler owns these.
			continue
		}
		results = append(results, Result{
			Item:       item,
			MatchScore: matchScore(cosineSimilarity(queryVec, vec)),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// queryEmbedding returns the vector for a normalized query, going through
// the Redis cache when available. Cache failures fall back to the provider.
func (e *Engine) queryEmbedding(ctx context.Context, normalized string) ([]float32, error) {
	key := cache.EmbeddingKey(normalized)

	if e.cache != nil {
		if cached, err := e.cache.Get(ctx, key); err == nil {
			var vec []float32
			if err := json.Unmarshal(cached, &vec); err == nil && len(vec) > 0 {
				return vec, nil
			}
		}
	}

	vec, err := e.embedder.Embed(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if raw, err := json.Marshal(vec); err == nil {
			if err := e.cache.Set(ctx, key, raw, embeddingCacheTTL); err != nil {
				log.Printf("Failed to cache query embedding: %v", err)
			}
		}
	}

	return vec, nil
}
