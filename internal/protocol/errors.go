package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// World routing/state.
	ErrWorldBusy = "E_WORLD_BUSY"

	// Order layer.
	ErrBadRequest     = "E_BAD_REQUEST"
	ErrNoPermission   = "E_NO_PERMISSION"
	ErrIneligible     = "E_INELIGIBLE_UNIT"
	ErrInvalidTarget  = "E_INVALID_TARGET"
	ErrUnknownType    = "E_UNKNOWN_TYPE"
	ErrMissingDeposit = "E_MISSING_DEPOSIT"
	ErrBlocked        = "E_BLOCKED"
	ErrInternal       = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrWorldBusy:       {},
	ErrBadRequest:      {},
	ErrNoPermission:    {},
	ErrIneligible:      {},
	ErrInvalidTarget:   {},
	ErrUnknownType:     {},
	ErrMissingDeposit:  {},
	ErrBlocked:         {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
