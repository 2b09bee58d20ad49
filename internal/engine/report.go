package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/scorebox-project/scorebox/pkg/jsonutil"
	"github.com/scorebox-project/scorebox/pkg/model"
)

// Aggregate runs one evaluation cycle end to end: evaluate the rubric
// against the snapshot, sum the item points and assemble the report.
// The report's items are ordered by category tag.
func Aggregate(r *model.Rubric, snap *model.Snapshot, carry *model.CarryoverState) (*model.Report, *model.CarryoverState) {
	items, nextCarry := Evaluate(r, snap, carry)

	total := 0
	for _, item := range items {
		total += item.Points
	}

	report := &model.Report{
		CurrentPoints: total,
		MaxPoints:     MaxPoints(r),
		Items:         items,
		GeneratedAt:   time.Now().UTC(),
	}
	report.SortItems()
	return report, nextCarry
}

// digestItem is the timestamp-free projection of a score item used for
// report digests.
type digestItem struct {
	Key         model.ItemKey `json:"key"`
	Description string        `json:"description"`
	Points      int           `json:"points"`
}

// Digest returns a hex SHA-256 over the report's scoring content,
// excluding timestamps. Two cycles that graded identically produce the
// same digest, which is how unchanged runs are recognized.
func Digest(r *model.Report) (string, error) {
	projection := struct {
		CurrentPoints int          `json:"current_points"`
		MaxPoints     int          `json:"max_points"`
		Items         []digestItem `json:"items"`
	}{
		CurrentPoints: r.CurrentPoints,
		MaxPoints:     r.MaxPoints,
		Items:         make([]digestItem, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		projection.Items = append(projection.Items, digestItem{
			Key:         item.Key,
			Description: item.Description,
			Points:      item.Points,
		})
	}

	canonical, err := jsonutil.CanonicalMarshal(projection)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
