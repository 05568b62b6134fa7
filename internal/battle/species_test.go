package battle

import "testing"

func TestSpeciesResistanceClamp(t *testing.T) {
	for _, sp := range AllSpecies() {
		f := NewFloran(sp.ID)
		r := f.Stats.Resistances
		for name, v := range map[string]float64{
			"heat": r.Heat, "cold": r.Cold, "dry": r.Dry,
			"wet": r.Wet, "wind": r.Wind, "salt": r.Salt,
		} {
			if v < 0 || v > MaxResistance {
				t.Errorf("%s 的 %s 抗性越界: %v", sp.ID, name, v)
			}
		}
	}
}

func TestClampResistances(t *testing.T) {
	r := clampResistances(Resistances{Heat: 1.5, Cold: -0.2, Dry: 0.5})
	if r.Heat != MaxResistance {
		t.Errorf("超上限抗性 = %v, 期望 %v", r.Heat, MaxResistance)
	}
	if r.Cold != 0 {
		t.Errorf("负抗性 = %v, 期望 0", r.Cold)
	}
	if r.Dry != 0.5 {
		t.Errorf("正常抗性被改写: %v", r.Dry)
	}
}

func TestSpeciesByIDFallback(t *testing.T) {
	sp := SpeciesByID("no_such_species")
	if sp.ID != speciesTable[0].ID {
		t.Errorf("未知物种应回退到首个物种，实际 %s", sp.ID)
	}
}

func TestNewFloranFullState(t *testing.T) {
	f := NewFloran("cactus")
	if f.Stats.HP != f.Stats.MaxHP {
		t.Error("新建植物应满血")
	}
	if f.Stats.CurrentWater != f.Stats.Capacity {
		t.Error("新建植物应满水")
	}
	if f.OverWaterStacks != 0 || f.RootRot {
		t.Error("新建植物不应携带过涝状态")
	}
}

func TestSkillCatalog(t *testing.T) {
	for _, sp := range AllSpecies() {
		for _, id := range sp.SkillIDs {
			if _, ok := SkillByID(id); !ok {
				t.Errorf("物种 %s 引用了不存在的技能 %s", sp.ID, id)
			}
		}
	}
}

func TestItemCatalogEffectKeys(t *testing.T) {
	known := map[string]bool{
		EffectWaterInstant: true, EffectWaterPrecise: true, EffectHealAndWater: true,
		EffectTranspReduce: true, EffectPhysBoost: true, EffectPSBoost: true,
		EffectRootRotReduce: true, EffectNoSunburn: true,
		EffectColdNullifyPSBoost: true, EffectReserveWater: true,
	}
	for _, it := range AllItems() {
		if !known[it.EffectKey] {
			t.Errorf("道具 %s 使用了未注册的效果键 %s", it.ID, it.EffectKey)
		}
	}
}
