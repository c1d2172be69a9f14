package cards

import "github.com/sahilm/fuzzy"

// cardSource implements fuzzy.Source over a card list.
type cardSource []Card

func (s cardSource) String(i int) string { return s[i].Name }
func (s cardSource) Len() int            { return len(s) }

// Search fuzzy-filters the marketplace mirror by name without a round trip,
// best matches first. An empty query returns the whole mirror.
func (s *Service) Search(query string) []Card {
	snapshot := s.market.Snapshot()
	if query == "" {
		return snapshot
	}

	matches := fuzzy.FindFrom(query, cardSource(snapshot))
	result := make([]Card, 0, len(matches))
	for _, m := range matches {
		result = append(result, snapshot[m.Index])
	}
	return result
}
