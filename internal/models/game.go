package models

import (
	"math"
	"time"
)

// 对战模式
const (
	ModePVEBot    = "PVE_BOT"
	ModePVPCasual = "PVP_CASUAL"
	ModePVPRanked = "PVP_RANKED"
)

// 进度参数
const (
	MaxLevel          = 30
	PerkPointsPerLevel = 1
)

// Progression 玩家进度表
type Progression struct {
	BaseModel
	UserID     uint `gorm:"uniqueIndex;not null" json:"user_id"`
	Level      int  `gorm:"default:1" json:"level"`
	XP         int  `gorm:"default:0" json:"xp"`
	PerkPoints int  `gorm:"default:0" json:"perk_points"`
}

// XPForLevel 升到指定等级所需的累计经验：round(40·level^1.4)
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return int(math.Round(40 * math.Pow(float64(level), 1.4)))
}

// AddXP 累加经验并结算升级，返回获得的等级数
func (p *Progression) AddXP(amount int) int {
	if amount <= 0 {
		return 0
	}
	p.XP += amount

	gained := 0
	for p.Level < MaxLevel && p.XP >= XPForLevel(p.Level+1) {
		p.Level++
		p.PerkPoints += PerkPointsPerLevel
		gained++
	}
	return gained
}

// MatchResult 对战结果表，终局时每名真实参与者写入一行
type MatchResult struct {
	BaseModel
	MatchID         string    `gorm:"size:64;not null;index" json:"match_id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	Mode            string    `gorm:"size:20;not null;index" json:"mode"`
	SpeciesID       string    `gorm:"size:50" json:"species_id"`
	OpponentID      uint      `json:"opponent_id"` // 机器人对战为0
	Won             bool      `json:"won"`
	Draw            bool      `json:"draw"`
	KOReason        string    `gorm:"size:20" json:"ko_reason"`
	Rounds          int       `json:"rounds"`
	DurationSeconds int       `json:"duration_seconds"`
	XPEarned        int       `json:"xp_earned"`
	BCEarned        int64     `json:"bc_earned"`
	RatingBefore    int       `json:"rating_before"`
	RatingAfter     int       `json:"rating_after"`
	Detail          JSONMap   `gorm:"type:json" json:"detail"`
	PlayedAt        time.Time `json:"played_at"`
}

// Rating 玩家分模式积分表
type Rating struct {
	BaseModel
	UserID uint   `gorm:"not null;uniqueIndex:idx_rating_user_mode" json:"user_id"`
	Mode   string `gorm:"size:20;not null;uniqueIndex:idx_rating_user_mode" json:"mode"`
	Value  int    `gorm:"default:1200" json:"value"`
	Wins   int    `gorm:"default:0" json:"wins"`
	Losses int    `gorm:"default:0" json:"losses"`
	Draws  int    `gorm:"default:0" json:"draws"`
}
