package search

import (
	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/model"
)

// categories counts offers per root tpl for the client's category tree.
// Linked and required searches count their own result; a general search
// counts the whole pool.
func (e *Engine) categories(req *model.SearchRequest, mode model.SearchMode, result []*model.Offer, p *model.Profile) map[string]int {
	fleaUnlocked := p.Info.Level >= e.cfg.MinUserLevel
	switch mode {
	case model.SearchLinked, model.SearchRequired:
		return countCategories(req, result, fleaUnlocked)
	case model.SearchGeneral:
		return countCategories(req, e.pool.All(), fleaUnlocked)
	default:
		e.logger.Printf("search: category refresh not supported in %s mode", mode)
		return map[string]int{}
	}
}

func countCategories(req *model.SearchRequest, offers []*model.Offer, fleaUnlocked bool) map[string]int {
	out := map[string]int{}
	for _, o := range offers {
		if len(o.Items) == 0 || len(o.Requirements) == 0 {
			continue
		}
		trader := o.IsTrader()
		if !fleaUnlocked && !trader {
			continue
		}
		if req.RemoveBartering && (len(o.Requirements) > 1 || !catalogs.IsMoney(o.Requirements[0].Tpl)) {
			continue
		}
		if req.OfferOwnerType == model.OwnerPlayers && trader {
			continue
		}
		if req.OfferOwnerType == model.OwnerTraders && !trader {
			continue
		}
		out[o.RootTpl()]++
	}
	return out
}
