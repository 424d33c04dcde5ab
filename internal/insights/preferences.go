package insights

import "sort"

// Profile is a derived summary of one user's historical affinities.
// TotalInteractions is omitted from the JSON shape when there is no
// history at all, which is how callers tell "no history" apart from
// "history with empty fields".
type Profile struct {
	Genres            []string `json:"genres"`
	Authors           []string `json:"authors"`
	RecentQueries     []string `json:"recent_queries"`
	TotalInteractions int      `json:"total_interactions,omitempty"`
}

// UserPreferences derives ranked genre/author affinities and recent query
// recall from the user's last interactions. File order is treated as
// chronological.
func (s *Service) UserPreferences(userID string) Profile {
	history := s.UserHistory(userID, preferenceWindow)
	if len(history) == 0 {
		return Profile{Genres: []string{}, Authors: []string{}, RecentQueries: []string{}}
	}

	var genres, authors, queries []string
	for _, rec := range history {
		queries = append(queries, rec.Query)
		for _, b := range rec.Books {
			genres = append(genres, b.Categories...)
			authors = append(authors, b.Authors...)
		}
	}
	if len(queries) > recentQueriesKept {
		queries = queries[len(queries)-recentQueriesKept:]
	}
	return Profile{
		Genres:            rankByFrequency(genres, topRanked),
		Authors:           rankByFrequency(authors, topRanked),
		RecentQueries:     queries,
		TotalInteractions: len(history),
	}
}

// rankByFrequency orders distinct items by descending count. Ties keep
// first-seen order: the candidate list is built in encounter order and the
// sort is stable.
func rankByFrequency(items []string, n int) []string {
	counts := make(map[string]int, len(items))
	var order []string
	for _, it := range items {
		if it == "" {
			continue
		}
		if counts[it] == 0 {
			order = append(order, it)
		}
		counts[it]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	if order == nil {
		order = []string{}
	}
	return order
}
