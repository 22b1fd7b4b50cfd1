package search

import (
	"sort"

	"fleamarket.gg/internal/market/model"
)

// Candidates is the set of item tpls a query may return. The zero value
// places no restriction.
type Candidates struct {
	restricted bool
	tpls       map[string]struct{}
}

func newCandidates(tpls []string) Candidates {
	c := Candidates{restricted: true, tpls: make(map[string]struct{}, len(tpls))}
	for _, t := range tpls {
		c.tpls[t] = struct{}{}
	}
	return c
}

func (c Candidates) Has(tpl string) bool {
	if !c.restricted {
		return true
	}
	_, ok := c.tpls[tpl]
	return ok
}

// List returns the candidate tpls sorted; nil when unrestricted.
func (c Candidates) List() []string {
	if !c.restricted {
		return nil
	}
	out := make([]string, 0, len(c.tpls))
	for t := range c.tpls {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Candidates resolves the item tpls a query is about. Build queries use
// their build keys. Otherwise a linked search yields the linked items, a
// handbook id narrows to its category (or to the item itself when it names
// one), and both together intersect.
func (e *Engine) Candidates(req *model.SearchRequest) Candidates {
	if req.BuildCount > 0 {
		keys := make([]string, 0, len(req.BuildItems))
		for tpl := range req.BuildItems {
			keys = append(keys, tpl)
		}
		return newCandidates(keys)
	}

	var out Candidates
	if req.LinkedSearchID != "" {
		out = newCandidates(e.cats.Items.Linked(req.LinkedSearchID))
	}
	if req.HandbookID != "" {
		cat := newCandidates(e.categoryList(req.HandbookID))
		if out.restricted && len(out.tpls) > 0 {
			for t := range out.tpls {
				if !cat.Has(t) {
					delete(out.tpls, t)
				}
			}
		} else {
			out = cat
		}
	}
	return out
}

func (e *Engine) categoryList(handbookID string) []string {
	if e.cats.Handbook.IsCategory(handbookID) {
		return e.cats.Handbook.CategoryItems(handbookID)
	}
	return []string{handbookID}
}
