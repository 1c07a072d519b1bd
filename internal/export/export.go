// Package export periodically archives ingested reviews as JSONL to an
// external destination.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"

	"github.com/alderglen/lookout/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	ReviewCount int       `json:"review_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes all reviews from the store as JSONL to w, newest
// first, preceded by a header line.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	reviews, err := s.ListReviews(ctx, 0)
	if err != nil {
		return fmt.Errorf("list reviews: %w", err)
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(header{
		Version:     "1",
		Type:        "lookout.reviews",
		Timestamp:   time.Now().UTC(),
		ReviewCount: len(reviews),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, r := range reviews {
		if err := enc.Encode(record{Type: "review", Data: r}); err != nil {
			return fmt.Errorf("encode review %s: %w", r.ReviewID, err)
		}
	}
	return nil
}
