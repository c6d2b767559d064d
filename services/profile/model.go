package profile

// Profile is a voucher template: access duration, traffic quota and the
// number of days a generated voucher stays redeemable.
type Profile struct {
	Name            string `gorm:"column:name;primaryKey" json:"name"`
	DurationSeconds int64  `gorm:"column:duration_seconds;not null" json:"duration_seconds"`
	QuotaUpBytes    int64  `gorm:"column:quota_up_bytes;not null;default:0" json:"quota_up_bytes"`
	QuotaDownBytes  int64  `gorm:"column:quota_down_bytes;not null;default:0" json:"quota_down_bytes"`
	Price           int64  `gorm:"column:price;not null;default:0" json:"price"`
	ExpiryDays      int    `gorm:"column:expiry_days;not null;default:7" json:"expiry_days"`
	CreatedAt       int64  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
