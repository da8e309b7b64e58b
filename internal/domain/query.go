package domain

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// queryLanguage drives case folding and name collation. Store names are
// Spanish.
var queryLanguage = language.Spanish

// Query filters records by tier and by a case-insensitive substring of the
// name, then sorts by name using locale collation. Ties keep their input
// order. The input slice is not modified.
//
// tier == AllTiers keeps every tier. A blank search term (after trimming)
// keeps every name.
func Query(records []StoreRecord, tier Tier, search string) []StoreRecord {
	// Casers and collators carry internal buffers; build them per call so
	// Query stays safe for concurrent use.
	fold := cases.Fold()
	term := fold.String(strings.TrimSpace(search))

	out := make([]StoreRecord, 0, len(records))
	for _, r := range records {
		if tier != AllTiers && r.Tier() != tier {
			continue
		}
		if term != "" && !strings.Contains(fold.String(r.Name), term) {
			continue
		}
		out = append(out, r)
	}

	col := collate.New(queryLanguage)
	slices.SortStableFunc(out, func(a, b StoreRecord) int {
		return col.CompareString(a.Name, b.Name)
	})
	return out
}

// IndexByID indexes records with a valid id. When several records share an
// id the last one wins and the id is reported once in duplicates, in order of
// first repetition. Records with invalid ids are not indexed.
func IndexByID(records []StoreRecord) (index map[int64]StoreRecord, duplicates []int64) {
	index = make(map[int64]StoreRecord, len(records))
	seen := make(map[int64]bool)
	for _, r := range records {
		if !r.IsValidID() {
			continue
		}
		if _, exists := index[r.ID]; exists && !seen[r.ID] {
			duplicates = append(duplicates, r.ID)
			seen[r.ID] = true
		}
		index[r.ID] = r
	}
	return index, duplicates
}
