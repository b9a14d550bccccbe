package catalog

import "sort"

// Establishments returns every establishment in catalog order.
func Establishments() []Establishment {
	out := make([]Establishment, len(establishments))
	copy(out, establishments)
	return out
}

// EstablishmentsByColor returns the establishments of one color in catalog order.
func EstablishmentsByColor(color Color) []Establishment {
	var out []Establishment
	for _, e := range establishments {
		if e.Color == color {
			out = append(out, e)
		}
	}
	return out
}

// LookupEstablishment finds an establishment by id.
func LookupEstablishment(id string) (Establishment, bool) {
	i, ok := establishmentIndex[id]
	if !ok {
		return Establishment{}, false
	}
	return establishments[i], true
}

// Landmarks returns every landmark in catalog order.
func Landmarks() []Landmark {
	out := make([]Landmark, len(landmarks))
	copy(out, landmarks)
	return out
}

// LookupLandmark finds a landmark by id.
func LookupLandmark(id string) (Landmark, bool) {
	i, ok := landmarkIndex[id]
	if !ok {
		return Landmark{}, false
	}
	return landmarks[i], true
}

// StartingMarket returns a fresh market with every card at its starting count.
func StartingMarket() map[string]int {
	market := make(map[string]int, len(establishments))
	for _, e := range establishments {
		n, ok := marketCounts[e.ID]
		if !ok {
			n = defaultMarketCount
		}
		market[e.ID] = n
	}
	return market
}

// StartingCards returns the hand every player begins with.
func StartingCards() map[string]int {
	return map[string]int{
		WheatField: 1,
		Bakery:     1,
	}
}

// SortedCardIDs returns the keys of a card-count map in catalog order.
// Ids unknown to the catalog sort last, alphabetically.
func SortedCardIDs(cards map[string]int) []string {
	ids := make([]string, 0, len(cards))
	for id := range cards {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aok := establishmentIndex[ids[i]]
		b, bok := establishmentIndex[ids[j]]
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return ids[i] < ids[j]
		}
	})
	return ids
}
