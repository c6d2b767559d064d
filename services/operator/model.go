package operator

type Role string

const (
	RoleSuper    Role = "super"
	RoleOperator Role = "operator"
)

func (r Role) String() string {
	switch r {
	case RoleSuper, RoleOperator:
		return string(r)
	default:
		return ""
	}
}

// Operator is the owning tenant account. Routers and vouchers belonging to
// different operators are mutually isolated.
type Operator struct {
	ID           string `gorm:"column:id;primaryKey" json:"id"`
	Username     string `gorm:"column:username;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	Role         Role   `gorm:"column:role;not null;default:'operator'" json:"role"`
	Enabled      bool   `gorm:"column:enabled;not null;default:true" json:"enabled"`
	CreatedAt    int64  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Operator) TableName() string {
	return "operators"
}

func (o *Operator) IsSuper() bool {
	return o.Role == RoleSuper
}
