package model

// MemberType mirrors the seller categories the game client understands.
type MemberType int

const (
	MemberDefault        MemberType = 0
	MemberDeveloper      MemberType = 1
	MemberUniqueID       MemberType = 2
	MemberTrader         MemberType = 4
	MemberGroup          MemberType = 8
	MemberSystem         MemberType = 16
	MemberChatModerator  MemberType = 32
	MemberSherpa         MemberType = 256
	MemberEmissary       MemberType = 512
	MemberUnheardEdition MemberType = 1024
)

type User struct {
	ID              string     `json:"id"`
	MemberType      MemberType `json:"memberType"`
	Nickname        string     `json:"nickname,omitempty"`
	Rating          float64    `json:"rating,omitempty"`
	IsRatingGrowing bool       `json:"isRatingGrowing,omitempty"`
}

// Requirement is one barter term of an offer.
type Requirement struct {
	Tpl            string `json:"_tpl"`
	Count          int    `json:"count"`
	OnlyFunctional bool   `json:"onlyFunctional,omitempty"`

	// Set on displayable trader assortments when the term is gated by an unfinished quest.
	QuestLocked bool `json:"sptQuestLocked,omitempty"`
}

type SellResult struct {
	SellTime int64 `json:"sellTime"`
	Amount   int   `json:"amount"`
}

type Offer struct {
	ID    string `json:"_id"`
	IntID int    `json:"intId"`
	User  User   `json:"user"`
	Root  string `json:"root"`

	Items        []Item        `json:"items"`
	Requirements []Requirement `json:"requirements"`

	ItemsCost        float64 `json:"itemsCost"`
	RequirementsCost float64 `json:"requirementsCost"`
	SummaryCost      float64 `json:"summaryCost"`

	StartTime      int64 `json:"startTime"`
	EndTime        int64 `json:"endTime"`
	SellInOnePiece bool  `json:"sellInOnePiece"`
	LoyaltyLevel   int   `json:"loyaltyLevel"`

	BuyRestrictionMax     int  `json:"buyRestrictionMax,omitempty"`
	BuyRestrictionCurrent int  `json:"buyRestrictionCurrent,omitempty"`
	Locked                bool `json:"locked,omitempty"`

	SellResults []SellResult `json:"sellResult,omitempty"`
}

func (o *Offer) IsTrader() bool { return o.User.MemberType == MemberTrader }

// RootItem returns the first listed item; callers rely on offers never being empty.
func (o *Offer) RootItem() *Item {
	if len(o.Items) == 0 {
		return nil
	}
	return &o.Items[0]
}

func (o *Offer) RootTpl() string {
	if len(o.Items) == 0 {
		return ""
	}
	return o.Items[0].Tpl
}

// Quantity is the number of purchasable units: one for packs, otherwise
// the stack total of every root-level item in the listing.
func (o *Offer) Quantity() int {
	if o.SellInOnePiece {
		return 1
	}
	n := 0
	for _, it := range o.RootItems() {
		n += it.StackCount()
	}
	return n
}

// RootItems returns the items whose parent is not part of the listing.
func (o *Offer) RootItems() []Item {
	ids := make(map[string]struct{}, len(o.Items))
	for _, it := range o.Items {
		ids[it.ID] = struct{}{}
	}
	var out []Item
	for _, it := range o.Items {
		if _, child := ids[it.ParentID]; !child {
			out = append(out, it)
		}
	}
	return out
}

func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	out := *o
	out.Items = CloneItems(o.Items)
	if o.Requirements != nil {
		out.Requirements = append([]Requirement(nil), o.Requirements...)
	}
	if o.SellResults != nil {
		out.SellResults = append([]SellResult(nil), o.SellResults...)
	}
	return &out
}

func CloneOffers(in []*Offer) []*Offer {
	out := make([]*Offer, 0, len(in))
	for _, o := range in {
		out = append(out, o.Clone())
	}
	return out
}
