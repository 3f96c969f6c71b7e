package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog/log"

	"alfredoptarigan/resume-parser/internal/config"
)

type SearchIndex interface {
	InitCollection(ctx context.Context) error
	ReplaceProfileChunks(ctx context.Context, clerkID string, chunks []string, embeddings [][]float32) error
	Search(ctx context.Context, queryEmbedding []float32, limit int) ([]ProfileMatch, error)
	DeleteProfile(ctx context.Context, clerkID string) error
}

// ProfileMatch is the best-scoring chunk hit for one account.
type ProfileMatch struct {
	ClerkID string
	Score   float32
	Snippet string
}

type qdrantIndex struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
}

func NewSearchIndex(cfg config.QdrantConfig) (SearchIndex, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	// gRPC port unless the URL names one
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: parsed.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantIndex{
		client:         client,
		collectionName: cfg.Collection,
		vectorSize:     768, // text-embedding-004
	}, nil
}

// InitCollection implements SearchIndex.
func (q *qdrantIndex) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	_, err = q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: q.collectionName,
		FieldName:      "clerk_id",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to index clerk_id payload: %w", err)
	}

	log.Info().Str("collection", q.collectionName).Msg("Qdrant collection created")
	return nil
}

// ReplaceProfileChunks implements SearchIndex.
func (q *qdrantIndex) ReplaceProfileChunks(ctx context.Context, clerkID string, chunks []string, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("got %d chunks but %d embeddings", len(chunks), len(embeddings))
	}

	if err := q.DeleteProfile(ctx, clerkID); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.NewString()),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"clerk_id":    clerkID,
				"chunk_index": i,
				"text":        chunk,
			}),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points for %s: %w", clerkID, err)
	}

	return nil
}

// Search implements SearchIndex.
func (q *qdrantIndex) Search(ctx context.Context, queryEmbedding []float32, limit int) ([]ProfileMatch, error) {
	// several chunks can belong to one profile, so over-fetch before grouping
	scored, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          qdrant.PtrOf(uint64(limit * 4)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := make([]ProfileMatch, 0, len(scored))
	for _, point := range scored {
		hits = append(hits, ProfileMatch{
			ClerkID: payloadString(point.Payload, "clerk_id"),
			Score:   point.Score,
			Snippet: payloadString(point.Payload, "text"),
		})
	}

	return GroupMatches(hits, limit), nil
}

// DeleteProfile implements SearchIndex.
func (q *qdrantIndex) DeleteProfile(ctx context.Context, clerkID string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch("clerk_id", clerkID),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete points for %s: %w", clerkID, err)
	}
	return nil
}

// GroupMatches keeps the best hit per clerk_id, ordered by descending score.
func GroupMatches(hits []ProfileMatch, limit int) []ProfileMatch {
	best := make(map[string]ProfileMatch, len(hits))
	for _, hit := range hits {
		if hit.ClerkID == "" {
			continue
		}
		if cur, ok := best[hit.ClerkID]; !ok || hit.Score > cur.Score {
			best[hit.ClerkID] = hit
		}
	}

	grouped := make([]ProfileMatch, 0, len(best))
	for _, m := range best {
		grouped = append(grouped, m)
	}
	sort.Slice(grouped, func(i, j int) bool {
		if grouped[i].Score == grouped[j].Score {
			return grouped[i].ClerkID < grouped[j].ClerkID
		}
		return grouped[i].Score > grouped[j].Score
	})

	if limit > 0 && len(grouped) > limit {
		grouped = grouped[:limit]
	}
	return grouped
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
			return s.StringValue
		}
	}
	return ""
}
