package protocol

import "encoding/json"

const Version = "1.0"

// Message types. Each request type is answered by a frame of the same type.
const (
	TypeFind        = "RAGFAIR_FIND"
	TypeFindByID    = "RAGFAIR_FIND_BY_ID"
	TypeMarketPrice = "RAGFAIR_MARKET_PRICE"
	TypeAddOffer    = "RAGFAIR_ADD"
	TypeRemoveOffer = "RAGFAIR_REMOVE"
	TypeExtendOffer = "RAGFAIR_EXTEND"
	TypeOfferFees   = "RAGFAIR_OFFER_FEES"
	TypePrices      = "RAGFAIR_PRICES"
	TypeError       = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
