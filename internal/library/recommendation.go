package library

import (
	"context"
	"fmt"

	"github.com/lectern/lectern/internal/defra"
)

// RecentRecommendationLimit caps how many recommendations a user ever reads
// back. History accumulates unbounded underneath; only the newest surface.
const RecentRecommendationLimit = 3

// Recommendation represents a suggested title produced by a generation run.
type Recommendation struct {
	ID      string `json:"id"`
	OwnerID string `json:"-"`
	Title   string `json:"title"`
	Reason  string `json:"reason"`
	// CreatedAt is unix milliseconds, shared by every record of one
	// generation run so a run's output sorts together.
	CreatedAt int64 `json:"created_at"`
}

// AddRecommendation appends one recommendation record. Recommendations are
// append-only: no update or delete path exists anywhere in the system.
func (s *Store) AddRecommendation(ctx context.Context, ownerID string, rec Recommendation) (string, error) {
	id, err := s.defra.Create(ctx, "Recommendation", map[string]any{
		"owner_id":   ownerID,
		"title":      rec.Title,
		"reason":     rec.Reason,
		"created_at": rec.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create recommendation: %w", err)
	}
	return id, nil
}

// RecentRecommendations returns the caller's newest recommendations,
// timestamp descending, capped at RecentRecommendationLimit.
func (s *Store) RecentRecommendations(ctx context.Context, ownerID string) ([]Recommendation, error) {
	resp, err := defra.NewQuery("Recommendation").
		Filter("owner_id", ownerID).
		Fields("_docID", "owner_id", "title", "reason", "created_at").
		OrderBy("created_at", "DESC").
		Limit(RecentRecommendationLimit).
		Execute(ctx, s.defra)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("recommendation query error: %s", errMsg)
	}

	docs := resp.Docs("Recommendation")
	recs := make([]Recommendation, 0, len(docs))
	for _, doc := range docs {
		recs = append(recs, recommendationFromDoc(doc))
	}
	return recs, nil
}

func recommendationFromDoc(doc map[string]any) Recommendation {
	r := Recommendation{}
	if v, ok := doc["_docID"].(string); ok {
		r.ID = v
	}
	if v, ok := doc["owner_id"].(string); ok {
		r.OwnerID = v
	}
	if v, ok := doc["title"].(string); ok {
		r.Title = v
	}
	if v, ok := doc["reason"].(string); ok {
		r.Reason = v
	}
	if v, ok := doc["created_at"].(float64); ok {
		r.CreatedAt = int64(v)
	}
	return r
}
