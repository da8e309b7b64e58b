package domain

import (
	"math"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// StoreView is a store record with its tier and display fields resolved, as
// shown on a map card or a CLI listing.
type StoreView struct {
	StoreRecord
	Tier         Tier   `json:"tier"`
	TierLabel    string `json:"tier_label"`
	PinColor     string `json:"pin_color"`
	ValidID      bool   `json:"valid_id"`
	Schedule     string `json:"schedule"`
	Collaborator string `json:"collaborator"`
}

// NewStoreView resolves the derived fields of r.
func NewStoreView(r StoreRecord) StoreView {
	t := r.Tier()
	return StoreView{
		StoreRecord:  r,
		Tier:         t,
		TierLabel:    t.Label(),
		PinColor:     t.PinColor(),
		ValidID:      r.IsValidID(),
		Schedule:     r.Schedule(),
		Collaborator: r.Collaborator(),
	}
}

// NewStoreViews maps NewStoreView over records, keeping their order.
func NewStoreViews(records []StoreRecord) []StoreView {
	out := make([]StoreView, len(records))
	for i, r := range records {
		out[i] = NewStoreView(r)
	}
	return out
}

// ClassifiedStore is a store view stamped with its classification time for
// downstream consumers.
type ClassifiedStore struct {
	StoreView
	ClassifiedAt time.Time `json:"classified_at"`
}

// Key identifies the store in keyed sinks.
func (c ClassifiedStore) Key() string {
	return strconv.FormatInt(c.ID, 10)
}

// ClassifyStores resolves the tier of every record, stamping each with the
// same classification time.
func ClassifyStores(records []StoreRecord) []ClassifiedStore {
	now := clock.Now().UTC()
	out := make([]ClassifiedStore, len(records))
	for i, r := range records {
		out[i] = ClassifiedStore{StoreView: NewStoreView(r), ClassifiedAt: now}
	}
	return out
}

// DefaultedFields lists the numeric fields of a backend store object that
// BuildStoreRecord would replace with their fallback values.
func DefaultedFields(obj gjson.Result) []string {
	var out []string
	for _, path := range []string{
		"location.latitude", "location.longitude",
		"nps", "fillfoundrate", "damage_rate", "out_of_stock", "complaint_resolution_time_hrs",
	} {
		v := obj.Get(path)
		if v.Type != gjson.Number || math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			out = append(out, path)
		}
	}
	return out
}
