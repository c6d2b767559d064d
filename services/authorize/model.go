package authorize

import "gorm.io/datatypes"

// Nonce is one consumed request nonce. The unique index over
// (router_id, value) is the replay guard: the second insert of the same pair
// fails and the request is denied.
type Nonce struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	RouterID  string `gorm:"column:router_id;not null;uniqueIndex:idx_nonces_router_nonce"`
	Value     string `gorm:"column:value;not null;uniqueIndex:idx_nonces_router_nonce"`
	CreatedAt int64  `gorm:"column:created_at;autoCreateTime;index"`
}

func (Nonce) TableName() string {
	return "nonces"
}

// AuthEvent is an audit record of one authorization request. Written
// best-effort after the decision; a failed write never changes the response.
type AuthEvent struct {
	ID          int64          `gorm:"column:id;primaryKey" json:"id"`
	RouterID    string         `gorm:"column:router_id;index" json:"router_id"`
	VoucherCode string         `gorm:"column:voucher_code;index" json:"voucher_code"`
	MAC         string         `gorm:"column:mac" json:"mac"`
	Allow       bool           `gorm:"column:allow" json:"allow"`
	Reason      string         `gorm:"column:reason" json:"reason"`
	Payload     datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt   int64          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AuthEvent) TableName() string {
	return "auth_events"
}
