package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func names(records []StoreRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestQuery(t *testing.T) {
	stores := loadFixtureStores(t)

	tests := []struct {
		name   string
		tier   Tier
		search string
		want   []string
	}{
		{
			name: "all tiers sorted by name",
			tier: AllTiers,
			want: []string{
				"Abarrotes La Esperanza", "Depósito Lejano", "Mini Súper Norte",
				"Oxxo Centro", "Súper Ñandú", "Tienda sin id",
			},
		},
		{
			name: "excellent only",
			tier: TierExcellent,
			want: []string{"Oxxo Centro", "Tienda sin id"},
		},
		{
			name: "good includes the gap store",
			tier: TierGood,
			want: []string{"Abarrotes La Esperanza", "Depósito Lejano"},
		},
		{
			name: "needs attention",
			tier: TierNeedsAttention,
			want: []string{"Mini Súper Norte", "Súper Ñandú"},
		},
		{
			name:   "search is case insensitive",
			tier:   AllTiers,
			search: "SÚPER",
			want:   []string{"Mini Súper Norte", "Súper Ñandú"},
		},
		{
			name:   "search and tier combine",
			tier:   TierNeedsAttention,
			search: "norte",
			want:   []string{"Mini Súper Norte"},
		},
		{
			name:   "blank search keeps everything",
			tier:   TierGood,
			search: "   ",
			want:   []string{"Abarrotes La Esperanza", "Depósito Lejano"},
		},
		{
			name:   "no match",
			tier:   AllTiers,
			search: "walmart",
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Query(stores, tt.tier, tt.search)))
		})
	}
}

func TestQuerySpanishCollation(t *testing.T) {
	stores := []StoreRecord{{Name: "Oasis"}, {Name: "Ñandú"}, {Name: "Nopal"}, {Name: "abarrotes"}, {Name: "Bodega"}}
	assert.Equal(t,
		[]string{"abarrotes", "Bodega", "Nopal", "Ñandú", "Oasis"},
		names(Query(stores, AllTiers, "")))
}

func TestQueryStableAndNonMutating(t *testing.T) {
	stores := []StoreRecord{
		{ID: 2, Name: "Oxxo"},
		{ID: 1, Name: "Oxxo"},
		{ID: 3, Name: "Alfa"},
	}
	got := Query(stores, AllTiers, "")

	assert.Equal(t, []int64{3, 2, 1}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, int64(2), stores[0].ID, "input order unchanged")
}

func TestIndexByID(t *testing.T) {
	stores := []StoreRecord{
		{ID: 1, Name: "first"},
		{ID: 2, Name: "second"},
		{ID: 1, Name: "first again"},
		{ID: 0, Name: "invalid"},
		{ID: 1, Name: "first third time"},
		{ID: -4, Name: "negative"},
		{ID: 2, Name: "second again"},
	}

	index, dups := IndexByID(stores)

	assert.Len(t, index, 2)
	assert.Equal(t, "first third time", index[1].Name)
	assert.Equal(t, "second again", index[2].Name)
	assert.Equal(t, []int64{1, 2}, dups)
	_, ok := index[0]
	assert.False(t, ok)
}

func TestIndexByIDFixtureIsUnique(t *testing.T) {
	index, dups := IndexByID(loadFixtureStores(t))
	assert.Empty(t, dups)
	assert.Len(t, index, 5)
}
