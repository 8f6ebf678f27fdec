// Package embedding wraps the external text-embedding provider behind a
// small interface so the search engine and workflow never see the SDK.
package embedding

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/apperr"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/middleware"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultModelName = "text-embedding-004"

	// Dimension of text-embedding-004 vectors. Stored embeddings with a
	// different length are stale (model migration) and get backfilled.
	Dimension = 768
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type GeminiEmbedder struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiEmbedder(ctx context.Context, apiKey string, timeout time.Duration) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GeminiEmbedder{
		client:  client,
		model:   defaultModelName,
		timeout: timeout,
	}, nil
}

func (e *GeminiEmbedder) Close() {
	if e.client != nil {
		if err := e.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

// Embed computes the vector for text. The call is bounded by the configured
// timeout; on any provider failure the caller gets an upstream error and no
// fallback vector.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	em := e.client.EmbeddingModel(e.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		middleware.RecordEmbeddingCall(false, time.Since(start))
		return nil, apperr.Upstream("embedding", err)
	}
	middleware.RecordEmbeddingCall(true, time.Since(start))

	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, apperr.Upstream("embedding", errNoData)
	}
	return res.Embedding.Values, nil
}

var errNoData = errors.New("no embedding data received")
