package authorize

import "net/http"

// Reason is the deny-reason tag returned to router firmware. The strings are
// part of the wire contract and must not change: deployed portal pages match
// on them to pick an error message.
type Reason string

const (
	ReasonMissing        Reason = "missing"
	ReasonMAC            Reason = "mac"
	ReasonSkew           Reason = "skew"
	ReasonRouter         Reason = "router"
	ReasonSig            Reason = "sig"
	ReasonReplay         Reason = "replay"
	ReasonVoucher        Reason = "voucher"
	ReasonExpired        Reason = "expired"
	ReasonRevoked        Reason = "revoked"
	ReasonTenant         Reason = "tenant"
	ReasonScope          Reason = "scope"
	ReasonBadSeconds     Reason = "bad_seconds"
	ReasonRace           Reason = "race"
	ReasonUsedByOther    Reason = "used_by_other"
	ReasonNoSession      Reason = "no_session"
	ReasonSessionExpired Reason = "session_expired"
	ReasonServer         Reason = "server"
)

// HTTPStatus maps a deny reason to its response status. Malformed requests
// are 400, everything the server could evaluate and rejected is 403, and
// storage failures are 500.
func (r Reason) HTTPStatus() int {
	switch r {
	case ReasonMissing, ReasonMAC:
		return http.StatusBadRequest
	case ReasonServer:
		return http.StatusInternalServerError
	default:
		return http.StatusForbidden
	}
}
