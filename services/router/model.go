package router

// Router is a network access point enforcing internet access per device. It
// authenticates against the voucher API with a shared secret. A disabled
// router is treated as absent for authorization purposes.
type Router struct {
	RouterID    string `gorm:"column:router_id;primaryKey" json:"router_id"`
	Name        string `gorm:"column:name;not null" json:"name"`
	OwnerUserID string `gorm:"column:owner_user_id;index;not null" json:"owner_user_id"`
	Secret      string `gorm:"column:secret;not null" json:"-"`
	Enabled     bool   `gorm:"column:enabled;not null;default:true" json:"enabled"`
	CreatedAt   int64  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Router) TableName() string {
	return "routers"
}
