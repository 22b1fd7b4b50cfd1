package model

// QuestStatus values recorded on a profile.
const (
	QuestLocked           = "Locked"
	QuestAvailableToStart = "AvailableForStart"
	QuestStarted          = "Started"
	QuestSuccess          = "Success"
)

// BonusRagfairCommission discounts (negative values) or raises the listing fee.
const BonusRagfairCommission = "RagfairCommission"

type Profile struct {
	ID   string `json:"_id"`
	Info Info   `json:"Info"`

	Inventory   Inventory    `json:"Inventory"`
	RagfairInfo *RagfairInfo `json:"RagfairInfo,omitempty"`

	// trader id -> assort id -> purchase record
	TraderPurchases map[string]map[string]PurchaseRecord `json:"traderPurchases,omitempty"`

	// trader id -> loyalty level
	TraderLoyalty map[string]int    `json:"TradersInfo,omitempty"`
	Quests        map[string]string `json:"Quests,omitempty"`
	Bonuses       []Bonus           `json:"Bonuses,omitempty"`

	Mail []MailMessage `json:"mail,omitempty"`
}

type Info struct {
	Nickname string `json:"Nickname"`
	Level    int    `json:"Level"`
}

type Inventory struct {
	// Stash is the root container id top-level items are parented to.
	Stash string `json:"stash"`
	Items []Item `json:"items"`
}

type RagfairInfo struct {
	Rating          float64  `json:"rating"`
	IsRatingGrowing bool     `json:"isRatingGrowing"`
	Offers          []*Offer `json:"offers"`
}

type PurchaseRecord struct {
	Count             int   `json:"count"`
	PurchaseTimestamp int64 `json:"purchaseTimestamp"`
}

type Bonus struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

const (
	MailOfferSold    = "OFFER_SOLD"
	MailOfferExpired = "OFFER_EXPIRED"
)

// MailMessage carries settlement output (payouts, returned items) to the player.
type MailMessage struct {
	ID        string `json:"_id"`
	Kind      string `json:"kind"`
	OfferID   string `json:"offerId"`
	Items     []Item `json:"items"`
	Timestamp int64  `json:"timestamp"`
}

// TraderPurchasesFor returns the purchase map for a trader, creating an empty one on first access.
func (p *Profile) TraderPurchasesFor(traderID string) map[string]PurchaseRecord {
	if p.TraderPurchases == nil {
		p.TraderPurchases = map[string]map[string]PurchaseRecord{}
	}
	m, ok := p.TraderPurchases[traderID]
	if !ok || m == nil {
		m = map[string]PurchaseRecord{}
		p.TraderPurchases[traderID] = m
	}
	return m
}

// EnsureRagfair returns the flea state, creating it if the profile never opened the market.
func (p *Profile) EnsureRagfair() *RagfairInfo {
	if p.RagfairInfo == nil {
		p.RagfairInfo = &RagfairInfo{}
	}
	return p.RagfairInfo
}

func (p *Profile) OfferIndex(offerID string) int {
	if p.RagfairInfo == nil {
		return -1
	}
	for i, o := range p.RagfairInfo.Offers {
		if o != nil && o.ID == offerID {
			return i
		}
	}
	return -1
}

func (p *Profile) QuestCompleted(questID string) bool {
	return p.Quests[questID] == QuestSuccess
}

func (p *Profile) BonusSum(kind string) float64 {
	var sum float64
	for _, b := range p.Bonuses {
		if b.Type == kind {
			sum += b.Value
		}
	}
	return sum
}
