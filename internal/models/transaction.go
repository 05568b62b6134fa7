package models

// Wallet 用户钱包表，余额为生物币（BC），不允许为负
type Wallet struct {
	BaseModel
	UserID      uint  `gorm:"uniqueIndex;not null" json:"user_id"`
	BioCredits  int64 `gorm:"default:0" json:"bio_credits"`
	TotalEarned int64 `gorm:"default:0" json:"total_earned"`
	TotalSpent  int64 `gorm:"default:0" json:"total_spent"`

	// 关联（注意：不直接嵌入 User，避免循环依赖）
}

// WalletTransaction 生物币流水表
// Reason格式：match_<mode>_<matchid> 或 shop_<itemid>。
type WalletTransaction struct {
	BaseModel
	UserID        uint    `gorm:"not null;index" json:"user_id"`
	OrderNo       string  `gorm:"uniqueIndex;size:64;not null" json:"order_no"`
	Amount        int64   `gorm:"not null" json:"amount"` // 正为入账，负为支出
	BeforeBalance int64   `json:"before_balance"`
	AfterBalance  int64   `json:"after_balance"`
	Reason        string  `gorm:"size:100;index" json:"reason"`
	RefID         string  `gorm:"size:100;index" json:"ref_id"` // 关联ID（对战ID、商品ID等）
	Metadata      JSONMap `gorm:"type:json" json:"metadata"`
}

// CanSpend 检查余额是否足以支出
func (w *Wallet) CanSpend(amount int64) bool {
	return amount >= 0 && w.BioCredits >= amount
}

// Apply 应用余额变动并更新累计统计，余额钳制在0以上
func (w *Wallet) Apply(amount int64) {
	w.BioCredits += amount
	if w.BioCredits < 0 {
		w.BioCredits = 0
	}
	if amount > 0 {
		w.TotalEarned += amount
	} else {
		w.TotalSpent += -amount
	}
}
