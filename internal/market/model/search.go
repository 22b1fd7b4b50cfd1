package model

// SearchRequest is a flea search as sent by the client.
type SearchRequest struct {
	Page          int `json:"page"`
	Limit         int `json:"limit"`
	SortType      int `json:"sortType"`
	SortDirection int `json:"sortDirection"`
	Currency      int `json:"currency"`
	PriceFrom     int `json:"priceFrom"`
	PriceTo       int `json:"priceTo"`
	QuantityFrom  int `json:"quantityFrom"`
	QuantityTo    int `json:"quantityTo"`
	ConditionFrom int `json:"conditionFrom"`
	ConditionTo   int `json:"conditionTo"`

	OneHourExpiration bool `json:"oneHourExpiration"`
	RemoveBartering   bool `json:"removeBartering"`
	OfferOwnerType    int  `json:"offerOwnerType"`
	OnlyFunctional    bool `json:"onlyFunctional"`
	UpdateOfferCount  bool `json:"updateOfferCount"`

	HandbookID     string         `json:"handbookId"`
	LinkedSearchID string         `json:"linkedSearchId"`
	NeededSearchID string         `json:"neededSearchId"`
	BuildItems     map[string]int `json:"buildItems"`
	BuildCount     int            `json:"buildCount"`
	TM             int            `json:"tm,omitempty"`
	Reload         int            `json:"reload,omitempty"`
}

type SearchMode int

const (
	SearchGeneral SearchMode = iota
	SearchLinked
	SearchRequired
	SearchBuild
)

func (m SearchMode) String() string {
	switch m {
	case SearchLinked:
		return "linked"
	case SearchRequired:
		return "required"
	case SearchBuild:
		return "build"
	default:
		return "general"
	}
}

// Mode picks exactly one search mode: build > required > linked > general.
func (r *SearchRequest) Mode() SearchMode {
	switch {
	case r.BuildCount > 0:
		return SearchBuild
	case r.NeededSearchID != "":
		return SearchRequired
	case r.LinkedSearchID != "":
		return SearchLinked
	default:
		return SearchGeneral
	}
}

// Sort keys understood by the client.
const (
	SortByID     = 0
	SortByBarter = 2
	SortByRating = 3
	SortByTitle  = 4
	SortByPrice  = 5
	SortByExpiry = 6
)

const (
	SortAscending  = 0
	SortDescending = 1
)

// Offer owner filters.
const (
	OwnerAny     = 0
	OwnerTraders = 1
	OwnerPlayers = 2
)

// Currency filters.
const (
	CurrencyAll = 0
	CurrencyRUB = 1
	CurrencyUSD = 2
	CurrencyEUR = 3
)

type PriceQuote struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Warning is a user-visible failure entry attached to an item event response.
type Warning struct {
	Index  int    `json:"index"`
	Code   string `json:"code,omitempty"`
	Errmsg string `json:"errmsg"`
}
