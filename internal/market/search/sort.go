package search

import (
	"sort"

	"fleamarket.gg/internal/market/model"
)

// sortOffers orders offers ascending by key, then reverses the whole slice
// for a descending request. Unknown keys keep the current order. title may
// be nil when sorting by title is never requested.
func sortOffers(offers []*model.Offer, key, direction int, title func(tpl string) string) {
	var less func(a, b *model.Offer) bool
	switch key {
	case model.SortByID:
		less = func(a, b *model.Offer) bool { return a.IntID < b.IntID }
	case model.SortByBarter:
		less = func(a, b *model.Offer) bool { return !onlyMoney(a) && onlyMoney(b) }
	case model.SortByRating:
		less = func(a, b *model.Offer) bool { return a.User.Rating < b.User.Rating }
	case model.SortByTitle:
		if title != nil {
			less = func(a, b *model.Offer) bool { return title(a.RootTpl()) < title(b.RootTpl()) }
		}
	case model.SortByPrice:
		less = func(a, b *model.Offer) bool { return a.RequirementsCost < b.RequirementsCost }
	case model.SortByExpiry:
		less = func(a, b *model.Offer) bool { return a.EndTime < b.EndTime }
	}
	if less != nil {
		sort.SliceStable(offers, func(i, j int) bool { return less(offers[i], offers[j]) })
	}
	if direction == model.SortDescending {
		for i, j := 0, len(offers)-1; i < j; i, j = i+1, j-1 {
			offers[i], offers[j] = offers[j], offers[i]
		}
	}
}
