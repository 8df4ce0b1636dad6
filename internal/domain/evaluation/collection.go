package evaluation

import "time"

// Uncategorized is the collection for concepts without a brand.
const Uncategorized = "Uncategorized"

// BrandCollection groups concepts sharing a brand tag, in evaluation order.
// Concepts are held by reference: a collection only ever holds pointers that
// are also present in the owning session's live list.
type BrandCollection struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Concepts  []*Concept `json:"concepts"`
	CreatedAt time.Time  `json:"createdAt"`
}
