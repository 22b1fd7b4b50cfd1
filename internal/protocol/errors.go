package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrUnknownType     = "E_UNKNOWN_TYPE"

	// Session routing.
	ErrNoSession = "E_NO_SESSION"

	// Market rule layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrNoPermission  = "E_NO_PERMISSION"
	ErrNoResource    = "E_NO_RESOURCE"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrConflict      = "E_CONFLICT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrUnknownType:     {},
	ErrNoSession:       {},
	ErrBadRequest:      {},
	ErrNoPermission:    {},
	ErrNoResource:      {},
	ErrInvalidTarget:   {},
	ErrConflict:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
