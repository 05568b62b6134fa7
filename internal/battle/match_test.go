package battle

import (
	"reflect"
	"testing"
)

// newTestFloran 构造指定属性的测试植物
func newTestFloran(stats Stats) *Floran {
	return &Floran{
		SpeciesID: "test",
		Name:      "Testpflanze",
		Stats:     stats,
		Statuses:  []StatusEffect{},
		Effects:   make(map[string]*ActiveEffect),
		Cooldowns: make(map[string]int),
	}
}

func TestTranspiration(t *testing.T) {
	tests := []struct {
		name      string
		weather   WeatherType
		stats     Stats
		wantWater int
	}{
		{
			// 规格场景：round(6+4+0-(0.6+0.55)*4) = round(5.4) = 5
			name:    "酷热天气下的蒸腾",
			weather: WeatherHotDry,
			stats: Stats{
				HP: 90, MaxHP: 90, Capacity: 90, CurrentWater: 90,
				Resistances: Resistances{Heat: 0.6, Dry: 0.55},
			},
			wantWater: 85,
		},
		{
			// 抗性足够高时蒸腾不为负：max(0, round(6-8)) = 0
			name:    "高抗性植物零蒸腾",
			weather: WeatherCloudy,
			stats: Stats{
				HP: 100, MaxHP: 100, Capacity: 100, CurrentWater: 50,
				Resistances: Resistances{Heat: 0.85, Dry: 0.85},
			},
			wantWater: 50,
		},
		{
			// 大风天气：round(6+0+3-0) = 9
			name:    "大风天气下的蒸腾",
			weather: WeatherWindy,
			stats: Stats{
				HP: 100, MaxHP: 100, Capacity: 100, CurrentWater: 100,
			},
			wantWater: 91,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFloran(tt.stats)
			m := NewMatch(f, NewFloran("cactus"), 1, nil)
			m.weather = tt.weather
			m.applyTranspiration(0, f)

			if f.Stats.CurrentWater != tt.wantWater {
				t.Errorf("蒸腾后水量 = %d, 期望 %d", f.Stats.CurrentWater, tt.wantWater)
			}
		})
	}
}

func TestTranspirationWithMulch(t *testing.T) {
	// mulch降低30%蒸腾：round((6+4)*0.7) = 7
	f := newTestFloran(Stats{HP: 100, MaxHP: 100, Capacity: 100, CurrentWater: 100})
	f.Effects[EffectTranspReduce] = &ActiveEffect{Key: EffectTranspReduce, Value: 0.3, Remaining: 3}

	m := NewMatch(f, NewFloran("cactus"), 1, nil)
	m.weather = WeatherHotDry
	m.applyTranspiration(0, f)

	if got, want := f.Stats.CurrentWater, 93; got != want {
		t.Errorf("蒸腾后水量 = %d, 期望 %d", got, want)
	}
}

func TestRainOverflowToRootRot(t *testing.T) {
	// 规格场景：容量100、水量95、湿抗0，连续两次暴雨r=0.6
	// 第一次溢出55 → 层数1；第二次溢出60 → 层数2 → 烂根
	f := newTestFloran(Stats{HP: 100, MaxHP: 100, Capacity: 100, CurrentWater: 95})
	m := NewMatch(f, NewFloran("cactus"), 1, nil)
	m.weather = WeatherHeavyRain

	m.applyRainRoll(f, 0.6)
	if f.OverWaterStacks != 1 {
		t.Fatalf("第一次溢出后层数 = %d, 期望 1", f.OverWaterStacks)
	}
	if f.RootRot {
		t.Fatal("第一次溢出后不应烂根")
	}
	if f.Stats.CurrentWater != 100 {
		t.Fatalf("溢出后水量应为容量上限，实际 %d", f.Stats.CurrentWater)
	}

	m.applyRainRoll(f, 0.6)
	if f.OverWaterStacks != 2 {
		t.Fatalf("第二次溢出后层数 = %d, 期望 2", f.OverWaterStacks)
	}
	if !f.RootRot {
		t.Fatal("层数达到2应触发烂根")
	}

	// 烂根以持久状态挂载
	found := false
	for _, st := range f.Statuses {
		if st.Type == StatusRootRot && st.Persistent {
			found = true
		}
	}
	if !found {
		t.Error("未找到持久的烂根状态")
	}
}

func TestRainOverflowWeightedByDrainage(t *testing.T) {
	// drainage_gravel按50%减缓过涝进度：两次溢出只累积1层
	f := newTestFloran(Stats{HP: 100, MaxHP: 100, Capacity: 100, CurrentWater: 95})
	f.Effects[EffectRootRotReduce] = &ActiveEffect{Key: EffectRootRotReduce, Value: 0.5, Remaining: 3}

	m := NewMatch(f, NewFloran("cactus"), 1, nil)
	m.weather = WeatherHeavyRain
	m.applyRainRoll(f, 0.6)
	f.Stats.CurrentWater = 95
	m.applyRainRoll(f, 0.6)

	if f.OverWaterStacks != 1 {
		t.Errorf("减缓后层数 = %d, 期望 1", f.OverWaterStacks)
	}
}

func TestBasicAttackDamage(t *testing.T) {
	// 规格场景：offense=70, surface=1.5, 满水, 酷热
	// PS = 6*1.3*1.5 = 11.7, offBonus = 5.85, raw = 75.85
	// mitigation = 25, final = round(50.85) = 51
	attacker := newTestFloran(Stats{
		HP: 90, MaxHP: 90, Capacity: 90, CurrentWater: 90,
		Surface: 1.5, Offense: 70,
	})
	defender := newTestFloran(Stats{
		HP: 120, MaxHP: 120, Capacity: 100, CurrentWater: 100,
		Defense: 50,
	})

	m := NewMatch(attacker, defender, 1, nil)
	m.weather = WeatherHotDry
	m.resolveBasicAttack(attacker, defender)

	if got, want := defender.Stats.HP, 120-51; got != want {
		t.Errorf("攻击后HP = %d, 期望 %d", got, want)
	}
}

func TestAttackWaterGate(t *testing.T) {
	// 水量占比≤0.25时光合归零，ps_boost不突破水闸
	attacker := newTestFloran(Stats{
		HP: 90, MaxHP: 90, Capacity: 100, CurrentWater: 20,
		Surface: 1.5, Offense: 70,
	})
	attacker.Effects[EffectPSBoost] = &ActiveEffect{Key: EffectPSBoost, Value: 0.25, Remaining: 2}

	m := NewMatch(attacker, newTestFloran(Stats{HP: 100, MaxHP: 100}), 1, nil)
	m.weather = WeatherHotDry

	if ps := m.photosynthesis(attacker); ps != 0 {
		t.Errorf("缺水时光合 = %v, 期望 0", ps)
	}
}

func TestDeterminism(t *testing.T) {
	// 相同（种子、物种、指令序列）必须产出完全一致的终局快照
	runMatch := func() MatchView {
		m := NewMatch(NewFloran("sunflower"), NewFloran("cactus"), 42, nil)
		commands := [2]Command{
			{Type: CommandAttack, TargetIndex: 1},
			{Type: CommandAttack, TargetIndex: 0},
		}
		for i := 0; i < 50 && !m.IsFinished(); i++ {
			m.NextRound(commands)
		}
		return m.Snapshot()
	}

	a := runMatch()
	b := runMatch()

	if !reflect.DeepEqual(a, b) {
		t.Error("相同种子的两次对战快照不一致")
	}
	if a.Round == 0 {
		t.Error("对战未推进任何回合")
	}
}

func TestRoundAdvancesByOne(t *testing.T) {
	m := NewMatch(NewFloran("sunflower"), NewFloran("cactus"), 7, nil)
	cmds := [2]Command{{Type: CommandAttack}, {Type: CommandAttack}}

	before := m.Round()
	m.NextRound(cmds)
	if m.Round() != before+1 {
		t.Errorf("回合数 = %d, 期望 %d", m.Round(), before+1)
	}
}

func TestFinishedMatchIgnoresCommands(t *testing.T) {
	m := NewMatch(NewFloran("sunflower"), NewFloran("cactus"), 7, nil)
	m.isFinished = true

	m.NextRound([2]Command{{Type: CommandAttack}, {Type: CommandAttack}})
	if m.Round() != 0 {
		t.Errorf("已结束对战的回合数被推进到 %d", m.Round())
	}
}

func TestKOPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		hp         int
		water      int
		rootRot    bool
		stacks     int
		wantReason KOReason
	}{
		{"HP优先于脱水", 0, 0, false, 0, KOReasonHP},
		{"脱水优先于烂根", 10, 0, true, 3, KOReasonDehydration},
		{"仅烂根", 10, 10, true, 3, KOReasonRootRot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loser := newTestFloran(Stats{
				HP: tt.hp, MaxHP: 100, Capacity: 100, CurrentWater: tt.water,
			})
			loser.RootRot = tt.rootRot
			loser.OverWaterStacks = tt.stacks
			winner := newTestFloran(Stats{HP: 100, MaxHP: 100, Capacity: 100, CurrentWater: 100})

			m := NewMatch(loser, winner, 1, nil)
			m.koPhase()

			if !m.isFinished {
				t.Fatal("对战应已结束")
			}
			if m.winnerIndex == nil || *m.winnerIndex != 1 {
				t.Fatal("胜者索引错误")
			}
			if m.koReason != tt.wantReason {
				t.Errorf("淘汰原因 = %s, 期望 %s", m.koReason, tt.wantReason)
			}
		})
	}
}

func TestDrawWhenBothKO(t *testing.T) {
	a := newTestFloran(Stats{HP: 0, MaxHP: 100, Capacity: 100, CurrentWater: 100})
	b := newTestFloran(Stats{HP: 0, MaxHP: 100, Capacity: 100, CurrentWater: 100})

	m := NewMatch(a, b, 1, nil)
	m.koPhase()

	if !m.isFinished {
		t.Fatal("双方倒下时对战应结束")
	}
	if m.winnerIndex != nil {
		t.Error("平局的胜者索引应为nil")
	}
	if m.koReason != KOReasonHP {
		t.Errorf("平局原因 = %s, 期望 %s", m.koReason, KOReasonHP)
	}
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	m := NewMatch(NewFloran("sunflower"), NewFloran("cactus"), 9, nil)
	m.florans[0].Statuses = append(m.florans[0].Statuses, StatusEffect{
		Type: StatusSpores, Duration: 3, DotPct: 0.08,
	})

	view := m.Snapshot()
	view.Florans[0].Statuses[0].Duration = 99
	view.Logs = append(view.Logs, LogEntry{Message: "tampered"})

	if m.florans[0].Statuses[0].Duration == 99 {
		t.Error("快照修改泄漏到引擎内部状态")
	}
}

func TestSkillCooldownGate(t *testing.T) {
	attacker := NewFloran("sunflower")
	defender := NewFloran("cactus")
	m := NewMatch(attacker, defender, 3, nil)
	m.weather = WeatherCoolDry

	cmd := Command{Type: CommandSkill, SkillID: "sun_blade", TargetIndex: 1}
	m.resolveSkill(0, attacker, cmd)
	hpAfterFirst := defender.Stats.HP
	if hpAfterFirst == defender.Stats.MaxHP {
		t.Fatal("首次技能应造成伤害")
	}
	if attacker.Cooldowns["sun_blade"] != 2 {
		t.Fatalf("技能冷却 = %d, 期望 2", attacker.Cooldowns["sun_blade"])
	}

	// 冷却中再次使用为无操作
	m.resolveSkill(0, attacker, cmd)
	if defender.Stats.HP != hpAfterFirst {
		t.Error("冷却中的技能不应造成伤害")
	}
}

func TestSkillDamageUsesResistanceChannel(t *testing.T) {
	// sun_blade为热通道：伤害乘以(1-热抗)
	attacker := newTestFloran(Stats{
		HP: 90, MaxHP: 90, Capacity: 90, CurrentWater: 90,
		Surface: 1.0, Offense: 70,
	})
	defender := newTestFloran(Stats{
		HP: 200, MaxHP: 200, Capacity: 100, CurrentWater: 100,
		Defense: 50, Resistances: Resistances{Heat: 0.5},
	})

	m := NewMatch(attacker, defender, 1, nil)
	m.weather = WeatherCoolDry
	m.resolveSkill(0, attacker, Command{Type: CommandSkill, SkillID: "sun_blade", TargetIndex: 1})

	// PS = 6*1.0*1.0 = 6, raw = (70+6*0.8)*1.4 = 104.72
	// final = round((104.72-25)*0.5) = round(39.86) = 40
	if got, want := defender.Stats.HP, 200-40; got != want {
		t.Errorf("技能伤害后HP = %d, 期望 %d", got, want)
	}
}

func TestSporeDotTick(t *testing.T) {
	f := newTestFloran(Stats{HP: 100, MaxHP: 100, Capacity: 100, CurrentWater: 100})
	f.Statuses = append(f.Statuses, StatusEffect{Type: StatusSpores, Duration: 3, DotPct: 0.08})

	m := NewMatch(f, NewFloran("cactus"), 1, nil)
	m.applyPassiveStatus()

	if got, want := f.Stats.HP, 92; got != want {
		t.Errorf("孢子伤害后HP = %d, 期望 %d", got, want)
	}
	if f.Statuses[0].Duration != 2 {
		t.Errorf("状态剩余回合 = %d, 期望 2", f.Statuses[0].Duration)
	}
}

func TestRootRotStatusPersists(t *testing.T) {
	f := newTestFloran(Stats{HP: 100, MaxHP: 100, Capacity: 100, CurrentWater: 100})
	f.Statuses = append(f.Statuses, StatusEffect{Type: StatusRootRot, Persistent: true, Stacks: 1})

	m := NewMatch(f, NewFloran("cactus"), 1, nil)
	for i := 0; i < 3; i++ {
		m.applyPassiveStatus()
	}

	// 每回合 max(1, round(100*0.12)) = 12
	if got, want := f.Stats.HP, 100-36; got != want {
		t.Errorf("烂根三回合后HP = %d, 期望 %d", got, want)
	}
	if len(f.Statuses) != 1 {
		t.Error("持久状态不应因回合衰减而消失")
	}
}

func TestUnknownItemIsNoop(t *testing.T) {
	f := NewFloran("sunflower")
	m := NewMatch(f, NewFloran("cactus"), 1, nil)
	before := f.Stats

	m.resolveItem(f, "no_such_item")
	if f.Stats != before {
		t.Error("未知道具不应改变植物状态")
	}
}

func TestWateringItems(t *testing.T) {
	tests := []struct {
		name       string
		itemID     string
		startWater int
		wantWater  int
		wantStacks int
	}{
		{"浇水壶正常加水", "watering_can", 50, 70, 0},
		{"浇水壶溢出计入过涝", "watering_can", 85, 90, 0}, // 权重0.5，单次不足1层
		{"精准浇灌不计溢出", "watering_wand", 85, 90, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFloran(Stats{HP: 90, MaxHP: 90, Capacity: 90, CurrentWater: tt.startWater})
			m := NewMatch(f, NewFloran("cactus"), 1, nil)

			m.resolveItem(f, tt.itemID)
			if f.Stats.CurrentWater != tt.wantWater {
				t.Errorf("水量 = %d, 期望 %d", f.Stats.CurrentWater, tt.wantWater)
			}
			if f.OverWaterStacks != tt.wantStacks {
				t.Errorf("过涝层数 = %d, 期望 %d", f.OverWaterStacks, tt.wantStacks)
			}
		})
	}
}

func TestReserveWaterTriggersBelowThreshold(t *testing.T) {
	f := newTestFloran(Stats{HP: 90, MaxHP: 90, Capacity: 100, CurrentWater: 50})
	m := NewMatch(f, NewFloran("cactus"), 1, nil)

	m.resolveItem(f, "hydrogel_beads")
	if f.ReserveWater == nil {
		t.Fatal("使用后应持有储备水")
	}

	// 水量高于阈值时不触发
	m.checkReserveWater(f)
	if f.ReserveWater == nil {
		t.Fatal("阈值之上不应触发储备水")
	}

	// 低于20%时触发并消耗
	f.Stats.CurrentWater = 10
	m.checkReserveWater(f)
	if f.ReserveWater != nil {
		t.Error("触发后储备水应被消耗")
	}
	if got, want := f.Stats.CurrentWater, 25; got != want {
		t.Errorf("触发后水量 = %d, 期望 %d", got, want)
	}
}

func TestEndOfRoundDecrementsEffects(t *testing.T) {
	f := NewFloran("sunflower")
	f.Effects[EffectPSBoost] = &ActiveEffect{Key: EffectPSBoost, Value: 0.25, Remaining: 1}
	f.Cooldowns["sun_blade"] = 2

	m := NewMatch(f, NewFloran("cactus"), 1, nil)
	m.endOfRound()

	if f.HasEffect(EffectPSBoost) {
		t.Error("到期的临时效果应被移除")
	}
	if f.Cooldowns["sun_blade"] != 1 {
		t.Errorf("冷却 = %d, 期望 1", f.Cooldowns["sun_blade"])
	}
}

func TestHPWaterBoundsInvariant(t *testing.T) {
	// 整场对战中HP与水量不越界
	m := NewMatch(NewFloran("bamboo"), NewFloran("water_lily"), 1234, nil)
	cmds := [2]Command{
		{Type: CommandAttack, TargetIndex: 1},
		{Type: CommandAttack, TargetIndex: 0},
	}

	for i := 0; i < 60 && !m.IsFinished(); i++ {
		m.NextRound(cmds)
		view := m.Snapshot()
		for _, fv := range view.Florans {
			if fv.HP < 0 || fv.HP > fv.MaxHP {
				t.Fatalf("回合%d HP越界: %d (max %d)", view.Round, fv.HP, fv.MaxHP)
			}
			if fv.CurrentWater < 0 || fv.CurrentWater > fv.Capacity {
				t.Fatalf("回合%d 水量越界: %d (cap %d)", view.Round, fv.CurrentWater, fv.Capacity)
			}
		}
	}
}
