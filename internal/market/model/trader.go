package model

// TraderAssort is the displayable assortment of one trader for one profile.
type TraderAssort struct {
	TraderID string `json:"traderId"`
	Items    []Item `json:"items"`

	// assort root id -> payment options
	BarterScheme map[string][][]Requirement `json:"barter_scheme"`
	// assort root id -> minimum loyalty level
	LoyalLevelItems map[string]int `json:"loyal_level_items"`
}

// Item returns the assortment entry with the given id.
func (a *TraderAssort) Item(id string) (Item, bool) {
	if a == nil {
		return Item{}, false
	}
	for _, it := range a.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// QuestLocked reports whether any payment option of the given assort
// entry is gated behind an unfinished quest.
func (a *TraderAssort) QuestLocked(id string) bool {
	if a == nil {
		return false
	}
	for _, scheme := range a.BarterScheme[id] {
		for _, r := range scheme {
			if r.QuestLocked {
				return true
			}
		}
	}
	return false
}
