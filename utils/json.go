package utils

import (
	"encoding/json"
	"os"
	"sort"

	"keyword-bid-analyzer/models"
)

// WriteJSON writes all combined records into a single JSON array, ranked
// keywords first (by desktop rank), unranked last in keyword order.
// Returns the number of records written.
func WriteJSON(filename string, records map[string]*models.KeywordRecord) (int, error) {
	all := make([]*models.KeywordRecord, 0, len(records))
	for _, rec := range records {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		ri, rj := all[i].PC.Rank, all[j].PC.Rank
		if (ri == models.Unranked) != (rj == models.Unranked) {
			return ri != models.Unranked
		}
		if ri != rj {
			return ri < rj
		}
		return all[i].Keyword < all[j].Keyword
	})

	f, err := os.Create(filename)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(all); err != nil {
		return 0, err
	}

	return len(all), nil
}
