package models

import "testing"

func TestXPForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{1, 0},
		{2, 106},  // round(40·2^1.4)
		{3, 186},  // round(40·3^1.4)
		{30, 4678}, // round(40·30^1.4)
	}

	for _, tt := range tests {
		if got := XPForLevel(tt.level); got != tt.want {
			t.Errorf("XPForLevel(%d) = %d, 期望 %d", tt.level, got, tt.want)
		}
	}
}

func TestAddXP(t *testing.T) {
	p := &Progression{Level: 1, XP: 0}

	gained := p.AddXP(XPForLevel(2))
	if gained != 1 || p.Level != 2 {
		t.Errorf("升级数 = %d, 等级 = %d, 期望 1/2", gained, p.Level)
	}
	if p.PerkPoints != 1 {
		t.Errorf("技能点 = %d, 期望 1", p.PerkPoints)
	}

	// 一次加经验可以跨多级
	p2 := &Progression{Level: 1, XP: 0}
	gained = p2.AddXP(XPForLevel(4))
	if p2.Level != 4 || gained != 3 {
		t.Errorf("等级 = %d（+%d级）, 期望 4（+3级）", p2.Level, gained)
	}

	// 非正数经验为无操作
	if p.AddXP(0) != 0 || p.AddXP(-5) != 0 {
		t.Error("非正数经验不应升级")
	}
}

func TestMaxLevelCap(t *testing.T) {
	p := &Progression{Level: MaxLevel - 1, XP: XPForLevel(MaxLevel) - 1}
	p.AddXP(1000000)
	if p.Level != MaxLevel {
		t.Errorf("等级 = %d, 不应超过上限 %d", p.Level, MaxLevel)
	}
}

func TestWalletApply(t *testing.T) {
	w := &Wallet{BioCredits: 100}

	w.Apply(50)
	if w.BioCredits != 150 || w.TotalEarned != 50 {
		t.Errorf("入账后余额 = %d, 累计收入 = %d", w.BioCredits, w.TotalEarned)
	}

	w.Apply(-200)
	if w.BioCredits != 0 {
		t.Errorf("余额 = %d, 应钳制为0", w.BioCredits)
	}
	if w.TotalSpent != 200 {
		t.Errorf("累计支出 = %d, 期望 200", w.TotalSpent)
	}
}

func TestWalletCanSpend(t *testing.T) {
	w := &Wallet{BioCredits: 100}
	if !w.CanSpend(100) {
		t.Error("余额恰好足够时应允许支出")
	}
	if w.CanSpend(101) {
		t.Error("余额不足时不应允许支出")
	}
	if w.CanSpend(-1) {
		t.Error("负数支出不合法")
	}
}
