package model

import (
	"fmt"
	"sort"
	"time"
)

// Category is a grading family. Category tags order the report
// lexicographically.
type Category string

const (
	CategoryApps      Category = "apps"
	CategoryFiles     Category = "files"
	CategoryForensics Category = "forensics"
	CategoryPolicy    Category = "policy"
	CategorySettings  Category = "settings"
	CategoryUsers     Category = "users"
)

// ItemKey identifies a graded fact. Recomputation with the same key
// replaces rather than duplicates an item. The structured tuple avoids
// key collisions between unrelated rule families.
type ItemKey struct {
	Category Category `json:"category"`
	Subject  string   `json:"subject"`
	Variant  string   `json:"variant,omitempty"`
}

// String renders the key as category/subject[#variant].
func (k ItemKey) String() string {
	if k.Variant == "" {
		return fmt.Sprintf("%s/%s", k.Category, k.Subject)
	}
	return fmt.Sprintf("%s/%s#%s", k.Category, k.Subject, k.Variant)
}

// ScoreItem is one atomic graded fact with a signed point value.
type ScoreItem struct {
	Key         ItemKey   `json:"key"`
	Description string    `json:"description"`
	Points      int       `json:"points"`
	CreatedAt   time.Time `json:"created_at"`
}

// Report is the result of one evaluation cycle: total earned points,
// maximum attainable points computed from the rubric alone, and the
// itemized breakdown grouped by category.
type Report struct {
	CurrentPoints int         `json:"current_points"`
	MaxPoints     int         `json:"max_points"`
	Items         []ScoreItem `json:"items"`
	GeneratedAt   time.Time   `json:"generated_at"`
}

// SortItems orders items by category tag (lexicographic), preserving
// insertion order within a category. Item keys are unique so no further
// tie-break is needed.
func (r *Report) SortItems() {
	sort.SliceStable(r.Items, func(i, j int) bool {
		return r.Items[i].Key.Category < r.Items[j].Key.Category
	})
}
