package protocol

import (
	"encoding/json"

	"fleamarket.gg/internal/market/model"
)

// Envelope is a websocket request frame.
type Envelope struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version,omitempty"`
	RequestID       string          `json:"request_id,omitempty"`
	SessionID       string          `json:"session_id"`
	Body            json.RawMessage `json:"body,omitempty"`
}

// Reply is a websocket response frame.
type Reply struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	OK        bool   `json:"ok"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Body      any    `json:"body,omitempty"`
}

type FindByIDRequest struct {
	ID int `json:"id"`
}

type MarketPriceRequest struct {
	TemplateID string `json:"templateId"`
}

type AddOfferRequest struct {
	SellInOnePiece bool                `json:"sellInOnePiece"`
	Items          []string            `json:"items"`
	Requirements   []model.Requirement `json:"requirements"`
}

type RemoveOfferRequest struct {
	OfferID string `json:"offerId"`
}

type ExtendOfferRequest struct {
	OfferID     string `json:"offerId"`
	RenewalTime int    `json:"renewalTime"`
}

// OfferFeesRequest stores the fee the client showed the player for an item
// about to be listed.
type OfferFeesRequest struct {
	ID    string  `json:"id"`
	Tpl   string  `json:"tpl"`
	Count int     `json:"count"`
	Fee   float64 `json:"fee"`
}

type SearchResponse struct {
	Offers           []*model.Offer `json:"offers"`
	OffersCount      int            `json:"offersCount"`
	SelectedCategory string         `json:"selectedCategory"`
	Categories       map[string]int `json:"categories,omitempty"`
}

// ItemEventResponse is the result of a state-changing market operation.
type ItemEventResponse struct {
	Warnings []model.Warning `json:"warnings"`
	OfferID  string          `json:"offerId,omitempty"`
	Fee      float64         `json:"fee,omitempty"`
}

func (r ItemEventResponse) OK() bool { return len(r.Warnings) == 0 }
