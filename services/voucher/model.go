package voucher

// Status is the lifecycle state of a voucher. Transitions are unused→used
// (first redemption) and any→revoked (administrative action); a used voucher
// never becomes unused again.
type Status string

const (
	StatusUnused  Status = "unused"
	StatusUsed    Status = "used"
	StatusRevoked Status = "revoked"
)

func (s Status) String() string {
	switch s {
	case StatusUnused, StatusUsed, StatusRevoked:
		return string(s)
	default:
		return ""
	}
}

// RouterScope restricts a voucher to one router of its owner. The wildcard
// sentinel "*" only exists at the storage and wire boundary; callers go
// through Matches.
type RouterScope string

const ScopeAny RouterScope = "*"

func (s RouterScope) IsWildcard() bool {
	return s == ScopeAny
}

func (s RouterScope) Matches(routerID string) bool {
	return s.IsWildcard() || string(s) == routerID
}

// Voucher is a single access-grant code. Expiry is on expires_at strictly
// less than now: a voucher expiring exactly now is still redeemable.
type Voucher struct {
	Code            string      `gorm:"column:code;primaryKey" json:"code"`
	OwnerUserID     string      `gorm:"column:owner_user_id;index;not null" json:"owner_user_id"`
	RouterScope     RouterScope `gorm:"column:router_scope;not null;default:'*'" json:"router_scope"`
	Profile         string      `gorm:"column:profile" json:"profile"`
	DurationSeconds int64       `gorm:"column:duration_seconds;not null" json:"duration_seconds"`
	QuotaUpBytes    int64       `gorm:"column:quota_up_bytes;not null;default:0" json:"quota_up_bytes"`
	QuotaDownBytes  int64       `gorm:"column:quota_down_bytes;not null;default:0" json:"quota_down_bytes"`
	ExpiresAt       int64       `gorm:"column:expires_at;not null;index" json:"expires_at"`
	Status          Status      `gorm:"column:status;not null;default:'unused';index" json:"status"`
	UsedAt          *int64      `gorm:"column:used_at" json:"used_at,omitempty"`
	UsedByMAC       string      `gorm:"column:used_by_mac" json:"used_by_mac,omitempty"`
	UsedByRouter    string      `gorm:"column:used_by_router" json:"used_by_router,omitempty"`
	CreatedAt       int64       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Voucher) TableName() string {
	return "vouchers"
}

// Session records one granted access window for a device. Rows are append
// only; the newest row for a voucher+mac pair is authoritative for the
// remaining time.
type Session struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	RouterID    string `gorm:"column:router_id;index;not null" json:"router_id"`
	MAC         string `gorm:"column:mac;not null;index:idx_sessions_voucher_mac,priority:2" json:"mac"`
	VoucherCode string `gorm:"column:voucher_code;not null;index:idx_sessions_voucher_mac,priority:1" json:"voucher_code"`
	StartAt     int64  `gorm:"column:start_at;not null" json:"start_at"`
	EndAt       int64  `gorm:"column:end_at;not null;index" json:"end_at"`
	CreatedAt   int64  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Session) TableName() string {
	return "sessions"
}
