package catalogs

import "sort"

func (h *Handbook) index() {
	h.prices = make(map[string]float64, len(h.Items))
	h.itemsByCat = map[string][]string{}
	for _, it := range h.Items {
		h.prices[it.ID] = it.Price
		h.itemsByCat[it.ParentID] = append(h.itemsByCat[it.ParentID], it.ID)
	}
	h.categoryByID = make(map[string]HandbookCategory, len(h.Categories))
	h.childCats = map[string][]string{}
	for _, c := range h.Categories {
		h.categoryByID[c.ID] = c
		if c.ParentID != "" {
			h.childCats[c.ParentID] = append(h.childCats[c.ParentID], c.ID)
		}
	}
	for k := range h.itemsByCat {
		sort.Strings(h.itemsByCat[k])
	}
	for k := range h.childCats {
		sort.Strings(h.childCats[k])
	}
}

// Price is the handbook (trader base) price of tpl.
func (h *Handbook) Price(tpl string) (float64, bool) {
	p, ok := h.prices[tpl]
	return p, ok
}

func (h *Handbook) IsCategory(id string) bool {
	_, ok := h.categoryByID[id]
	return ok
}

// CategoryItems returns every item tpl under the category, descending
// into sub-categories.
func (h *Handbook) CategoryItems(categoryID string) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(id string)
	walk = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		out = append(out, h.itemsByCat[id]...)
		for _, child := range h.childCats[id] {
			walk(child)
		}
	}
	walk(categoryID)
	return out
}

// ItemCategory returns the handbook category an item tpl is filed under.
func (h *Handbook) ItemCategory(tpl string) string {
	for _, it := range h.Items {
		if it.ID == tpl {
			return it.ParentID
		}
	}
	return ""
}
