package battle

import (
	"math"

	"go.uber.org/zap"
)

// 对战引擎常量
const (
	baseTranspiration = 6    // 每回合基础蒸腾量
	minOverflowAmount = 1.0  // 计为过涝的最小溢出量
	rootRotTriggerStacks = 2 // 过涝层数达到该值时获得烂根
	rootRotKOStacks      = 3 // 烂根状态下过涝层数达到该值时判定淘汰
	psBaseValue          = 6.0
	psWaterGate          = 0.25 // 水量占比低于该值时光合归零
	attackPSCoefficient  = 0.5
	mitigationFactor     = 0.5
	rootRotDotPct        = 0.12
	sunburnDotPct        = 0.04
)

// Match 单场对战引擎
// 引擎方法不做并发保护，调用方（网关）须保证同一对战的调用串行。
// 给定相同的种子、相同的初始植物和相同的指令序列，引擎产出完全一致的
// 日志与终局状态。
type Match struct {
	round       int
	phase       MatchPhase
	weather     WeatherType
	florans     [2]*Floran
	logs        []LogEntry
	rng         *RNG
	isFinished  bool
	winnerIndex *int
	koReason    KOReason
	log         *zap.Logger
}

// NewMatch 创建对战，florans[0]/florans[1]的索引在整场对战中保持稳定
func NewMatch(player, enemy *Floran, seed uint32, log *zap.Logger) *Match {
	if log == nil {
		log = zap.NewNop()
	}
	return &Match{
		round:   0,
		phase:   PhaseStartOfRound,
		weather: WeatherHotDry,
		florans: [2]*Floran{player, enemy},
		logs:    []LogEntry{},
		rng:     NewRNG(seed),
		log:     log,
	}
}

// IsFinished 对战是否已结束
func (m *Match) IsFinished() bool {
	return m.isFinished
}

// Round 当前回合数
func (m *Match) Round() int {
	return m.round
}

// NextRound 推进一个回合，按固定阶段顺序执行
// 对已结束的对战调用是无操作，仅记录告警。
func (m *Match) NextRound(commands [2]Command) {
	if m.isFinished {
		m.log.Warn("对战已结束，忽略回合指令", zap.Int("round", m.round))
		return
	}

	m.round++
	m.phase = PhaseStartOfRound
	m.addLog("回合开始", map[string]interface{}{"round": m.round})

	m.applyEnvironment()
	m.applyPassiveStatus()

	m.phase = PhaseCommand
	m.addLog("指令阶段", map[string]interface{}{
		"commands": []string{string(commands[0].Type), string(commands[1].Type)},
	})

	m.resolutionPhase(commands)
	m.koPhase()
	m.endOfRound()
}

// rollWeather 按固定权重从随机流采样天气
// HotDry 0.25 / CoolDry 0.20 / LightRain 0.20 / HeavyRain 0.15 / Cloudy 0.10 / Windy 0.10
func (m *Match) rollWeather() {
	roll := m.rng.Float64()
	switch {
	case roll < 0.25:
		m.weather = WeatherHotDry
	case roll < 0.45:
		m.weather = WeatherCoolDry
	case roll < 0.65:
		m.weather = WeatherLightRain
	case roll < 0.80:
		m.weather = WeatherHeavyRain
	case roll < 0.90:
		m.weather = WeatherCloudy
	default:
		m.weather = WeatherWindy
	}
	m.addLog("天气更新", map[string]interface{}{"weather": m.weather})
}

// applyEnvironment 环境阶段：天气采样、蒸腾、降雨回水
func (m *Match) applyEnvironment() {
	m.phase = PhaseApplyEnvironment
	m.rollWeather()

	for idx, f := range m.florans {
		m.applyTranspiration(idx, f)

		if m.weather == WeatherLightRain || m.weather == WeatherHeavyRain {
			m.applyRain(f)
		}

		m.checkReserveWater(f)
	}
}

// applyTranspiration 计算并扣除蒸腾水量
func (m *Match) applyTranspiration(idx int, f *Floran) {
	heatMod := 0.0
	switch m.weather {
	case WeatherHotDry:
		heatMod = 4
	case WeatherCoolDry:
		heatMod = 1
	}
	windMod := 0.0
	if m.weather == WeatherWindy {
		windMod = 3
	}

	resistReduction := (f.Stats.Resistances.Heat + f.Stats.Resistances.Dry) * 4
	raw := baseTranspiration + heatMod + windMod - resistReduction

	// 临时效果在取整前按乘法生效
	if v := f.EffectValue(EffectTranspReduce); v > 0 {
		raw *= 1 - v
	}
	if f.HasEffect(EffectColdNullifyPSBoost) {
		// 加热灯提升光合的同时小幅增加蒸腾
		if it, ok := ItemByID("heat_lamp"); ok {
			raw *= 1 + it.Params["transpBoost"]
		}
	}

	transpiration := int(math.Max(0, math.Round(raw)))
	before := f.Stats.CurrentWater
	f.Stats.CurrentWater -= transpiration
	if f.Stats.CurrentWater < 0 {
		f.Stats.CurrentWater = 0
	}

	m.addLog("蒸腾", map[string]interface{}{
		"floran":        f.Name,
		"index":         idx,
		"transpiration": transpiration,
		"before_water":  before,
		"after_water":   f.Stats.CurrentWater,
	})
}

// applyRain 降雨回水，回水比例由对战随机流在天气区间内采样
func (m *Match) applyRain(f *Floran) {
	minPct, maxPct := 0.10, 0.25
	if m.weather == WeatherHeavyRain {
		minPct, maxPct = 0.30, 0.60
	}
	m.applyRainRoll(f, m.rng.Range(minPct, maxPct))
}

// applyRainRoll 按给定比例回水，溢出累积过涝层数并可能触发烂根
func (m *Match) applyRainRoll(f *Floran, roll float64) {
	gain := float64(f.Stats.Capacity) * roll * (1 - f.Stats.Resistances.Wet)

	before := f.Stats.CurrentWater
	total := float64(before) + gain

	if total > float64(f.Stats.Capacity) {
		overflow := total - float64(f.Stats.Capacity)
		f.Stats.CurrentWater = f.Stats.Capacity

		m.addLog("降雨溢出", map[string]interface{}{
			"floran":   f.Name,
			"gain":     gain,
			"overflow": overflow,
		})

		if overflow > minOverflowAmount {
			m.addOverWater(f, 1)
		}
	} else {
		f.Stats.CurrentWater = int(math.Round(total))
	}

	m.addLog("降雨回水", map[string]interface{}{
		"floran":       f.Name,
		"gain":         gain,
		"before_water": before,
		"after_water":  f.Stats.CurrentWater,
	})
}

// addOverWater 累积过涝进度
// 带权累积（道具溢出按overflowStack计），drainage_gravel按比例减缓进度；
// 层数只增不减，达到阈值且尚未烂根时挂载持久烂根状态。
func (m *Match) addOverWater(f *Floran, weight float64) {
	if v := f.EffectValue(EffectRootRotReduce); v > 0 {
		weight *= 1 - v
	}
	f.overWaterProgress += weight
	stacks := int(f.overWaterProgress)
	if stacks > f.OverWaterStacks {
		f.OverWaterStacks = stacks
	}

	if f.OverWaterStacks >= rootRotTriggerStacks && !f.RootRot {
		f.RootRot = true
		f.Statuses = append(f.Statuses, StatusEffect{
			Type:       StatusRootRot,
			Persistent: true,
			Stacks:     1,
		})
		m.addLog("获得烂根", map[string]interface{}{
			"floran":            f.Name,
			"over_water_stacks": f.OverWaterStacks,
		})
	}
}

// checkReserveWater 低水量时触发储备水（hydrogel_beads）
func (m *Match) checkReserveWater(f *Floran) {
	if f.ReserveWater == nil {
		return
	}
	it, ok := ItemByID("hydrogel_beads")
	if !ok {
		return
	}
	if f.WaterRatio() >= it.Params["triggerBelowPct"] {
		return
	}

	value := int(f.ReserveWater.Value)
	f.ReserveWater = nil
	m.addWater(f, value, it.Params["overflowStack"])
	m.addLog("储备水触发", map[string]interface{}{
		"floran": f.Name,
		"value":  value,
	})
}

// addWater 加水，超出容量的部分按权重计入过涝进度
func (m *Match) addWater(f *Floran, amount int, overflowWeight float64) {
	total := f.Stats.CurrentWater + amount
	if total > f.Stats.Capacity {
		overflow := float64(total - f.Stats.Capacity)
		f.Stats.CurrentWater = f.Stats.Capacity
		if overflow > minOverflowAmount && overflowWeight > 0 {
			m.addOverWater(f, overflowWeight)
		}
		return
	}
	f.Stats.CurrentWater = total
}

// applyPassiveStatus 状态阶段：结算持续伤害并衰减状态
func (m *Match) applyPassiveStatus() {
	m.phase = PhaseApplyPassiveStatus

	for _, f := range m.florans {
		remaining := f.Statuses[:0]
		for _, st := range f.Statuses {
			if !st.Persistent && st.Duration <= 0 {
				continue
			}

			switch st.Type {
			case StatusRootRot:
				damage := int(math.Max(1, math.Round(float64(f.Stats.MaxHP)*rootRotDotPct)))
				m.applyStatusDamage(f, st.Type, damage)
			case StatusSpores:
				damage := int(math.Max(1, math.Round(float64(f.Stats.MaxHP)*st.DotPct)))
				m.applyStatusDamage(f, st.Type, damage)
			case StatusSunburn:
				if !f.HasEffect(EffectNoSunburn) {
					damage := int(math.Max(1, math.Round(float64(f.Stats.MaxHP)*sunburnDotPct)))
					m.applyStatusDamage(f, st.Type, damage)
				}
			}

			if st.Persistent {
				remaining = append(remaining, st)
				continue
			}
			st.Duration--
			if st.Duration > 0 {
				remaining = append(remaining, st)
			}
		}
		f.Statuses = remaining
	}
}

// applyStatusDamage 结算状态伤害
func (m *Match) applyStatusDamage(f *Floran, st StatusType, damage int) {
	before := f.Stats.HP
	f.Stats.HP -= damage
	if f.Stats.HP < 0 {
		f.Stats.HP = 0
	}
	m.addLog("状态伤害", map[string]interface{}{
		"floran":    f.Name,
		"status":    st,
		"damage":    damage,
		"before_hp": before,
		"after_hp":  f.Stats.HP,
	})
}

// resolutionPhase 结算阶段：按先攻降序行动，先攻相同时索引0先手
func (m *Match) resolutionPhase(commands [2]Command) {
	m.phase = PhaseResolution

	order := [2]int{0, 1}
	if m.florans[1].Stats.Initiative > m.florans[0].Stats.Initiative {
		order = [2]int{1, 0}
	}

	for _, idx := range order {
		if m.isFinished {
			break
		}
		actor := m.florans[idx]
		if actor.Stats.HP <= 0 {
			continue
		}
		m.resolveCommand(idx, actor, commands[idx])
	}
}

// resolveCommand 结算单条指令，非法内容降级为记录日志的无操作
func (m *Match) resolveCommand(idx int, actor *Floran, cmd Command) {
	targetIdx := cmd.TargetIndex
	if targetIdx != 0 && targetIdx != 1 {
		targetIdx = 1 - idx
	}
	target := m.florans[targetIdx]

	switch cmd.Type {
	case CommandAttack:
		defender := target
		if defender == actor {
			defender = m.florans[1-idx]
		}
		m.resolveBasicAttack(actor, defender)
	case CommandSkill:
		m.resolveSkill(idx, actor, cmd)
	case CommandItem:
		m.resolveItem(actor, cmd.ItemID)
	case CommandSwitch:
		// 单植物对战没有可切换对象
		m.addLog("切换无效", map[string]interface{}{"floran": actor.Name})
	default:
		m.addLog("未知指令", map[string]interface{}{
			"floran": actor.Name,
			"type":   cmd.Type,
		})
	}
}

// photosynthesis 计算光合产出
// 水量占比低于阈值时光合归零，临时增益不突破该水闸。
func (m *Match) photosynthesis(f *Floran) float64 {
	if f.WaterRatio() <= psWaterGate {
		return 0
	}

	sunFactor := 1.0
	switch m.weather {
	case WeatherHotDry:
		sunFactor = 1.3
	case WeatherCoolDry:
		sunFactor = 1.0
	case WeatherCloudy:
		sunFactor = 0.7
	case WeatherLightRain, WeatherHeavyRain:
		sunFactor = 0.3
	}

	ps := psBaseValue * sunFactor * f.Stats.Surface

	if v := f.EffectValue(EffectPSBoost); v > 0 {
		ps *= 1 + v
	}
	if f.HasEffect(EffectColdNullifyPSBoost) {
		if it, ok := ItemByID("heat_lamp"); ok {
			ps *= 1 + it.Params["psBoost"]
		}
	}
	if f.HasEffect(EffectNoSunburn) {
		if it, ok := ItemByID("shade_cloth"); ok {
			ps *= 1 - it.Params["psPenalty"]
		}
	}

	return ps
}

// resolveBasicAttack 普通攻击结算
func (m *Match) resolveBasicAttack(attacker, defender *Floran) {
	ps := m.photosynthesis(attacker)
	offBonus := ps * attackPSCoefficient
	rawOffense := float64(attacker.Stats.Offense) + offBonus
	mitigation := float64(defender.Stats.Defense) * mitigationFactor

	// 物理攻击不走抗性通道
	finalDamage := rawOffense - mitigation
	if v := attacker.EffectValue(EffectPhysBoost); v > 0 {
		finalDamage *= 1 + v
	}
	damage := int(math.Max(1, math.Round(finalDamage)))

	before := defender.Stats.HP
	defender.Stats.HP -= damage
	if defender.Stats.HP < 0 {
		defender.Stats.HP = 0
	}

	m.addLog("攻击", map[string]interface{}{
		"attacker":   attacker.Name,
		"defender":   defender.Name,
		"ps":         ps,
		"raw":        rawOffense,
		"mitigation": mitigation,
		"damage":     damage,
		"before_hp":  before,
		"after_hp":   defender.Stats.HP,
	})
}

// resolveSkill 技能结算，冷却未就绪或技能不存在时降级为无操作
func (m *Match) resolveSkill(idx int, actor *Floran, cmd Command) {
	skill, ok := SkillByID(cmd.SkillID)
	if !ok {
		m.addLog("未知技能", map[string]interface{}{
			"floran": actor.Name,
			"skill":  cmd.SkillID,
		})
		return
	}
	if actor.Cooldowns[skill.ID] > 0 {
		m.addLog("技能冷却中", map[string]interface{}{
			"floran":    actor.Name,
			"skill":     skill.ID,
			"remaining": actor.Cooldowns[skill.ID],
		})
		return
	}

	defender := m.florans[1-idx]

	switch skill.Archetype {
	case SkillDirectDamage:
		ps := m.photosynthesis(actor)
		rawOffense := float64(actor.Stats.Offense) + ps*skill.PSCoefficient
		raw := rawOffense * skill.Power
		mitigation := float64(defender.Stats.Defense) * mitigationFactor
		resist := resistanceForChannel(defender.Stats.Resistances, skill.DamageType)
		damage := int(math.Max(1, math.Round((raw-mitigation)*(1-resist))))

		before := defender.Stats.HP
		defender.Stats.HP -= damage
		if defender.Stats.HP < 0 {
			defender.Stats.HP = 0
		}
		m.addLog("技能伤害", map[string]interface{}{
			"floran":    actor.Name,
			"skill":     skill.ID,
			"damage":    damage,
			"before_hp": before,
			"after_hp":  defender.Stats.HP,
		})

	case SkillDamageOverTime:
		defender.Statuses = append(defender.Statuses, StatusEffect{
			Type:     StatusSpores,
			Duration: skill.DotDuration,
			Stacks:   1,
			DotPct:   skill.DotPctPerRound,
		})
		m.addLog("技能施加状态", map[string]interface{}{
			"floran": actor.Name,
			"skill":  skill.ID,
			"target": defender.Name,
		})

	case SkillSupport:
		m.resolveSupportSkill(actor, skill)
	}

	actor.Cooldowns[skill.ID] = skill.Cooldown
}

// resolveSupportSkill 辅助类技能结算
func (m *Match) resolveSupportSkill(actor *Floran, skill Skill) {
	switch skill.ID {
	case "sap_storage":
		// 将水分封存于组织内，效果等同mulch
		actor.Effects[EffectTranspReduce] = &ActiveEffect{
			Key: EffectTranspReduce, Value: 0.3, Remaining: 3,
		}
		m.addLog("技能生效", map[string]interface{}{
			"floran": actor.Name, "skill": skill.ID,
		})
	case "gel_heal":
		heal := int(math.Max(1, math.Round(float64(actor.Stats.MaxHP)*0.15)))
		before := actor.Stats.HP
		actor.Stats.HP += heal
		if actor.Stats.HP > actor.Stats.MaxHP {
			actor.Stats.HP = actor.Stats.MaxHP
		}
		m.addWater(actor, 10, 0)
		m.addLog("技能治疗", map[string]interface{}{
			"floran":    actor.Name,
			"skill":     skill.ID,
			"heal":      heal,
			"before_hp": before,
			"after_hp":  actor.Stats.HP,
		})
	default:
		m.addLog("技能生效", map[string]interface{}{
			"floran": actor.Name, "skill": skill.ID,
		})
	}
}

// resolveItem 道具结算，未知效果键为记录日志的无操作
func (m *Match) resolveItem(actor *Floran, itemID string) {
	item, ok := ItemByID(itemID)
	if !ok {
		m.addLog("未知道具", map[string]interface{}{
			"floran": actor.Name,
			"item":   itemID,
		})
		return
	}

	switch item.EffectKey {
	case EffectWaterInstant:
		m.addWater(actor, int(item.Params["value"]), item.Params["overflowStack"])
	case EffectWaterPrecise:
		// 精准浇灌不计溢出
		m.addWater(actor, int(item.Params["value"]), 0)
	case EffectHealAndWater:
		heal := int(math.Max(1, math.Round(float64(actor.Stats.MaxHP)*item.Params["hpPct"])))
		actor.Stats.HP += heal
		if actor.Stats.HP > actor.Stats.MaxHP {
			actor.Stats.HP = actor.Stats.MaxHP
		}
		m.addWater(actor, int(item.Params["water"]), 0)
		m.applyInitPenalty(actor, item.Params["nextInitPenalty"])
	case EffectTranspReduce:
		if bonus := item.Params["capacityBonus"]; bonus > 0 {
			actor.Stats.Capacity += int(bonus)
		}
		if item.Params["value"] > 0 {
			actor.Effects[EffectTranspReduce] = &ActiveEffect{
				Key: EffectTranspReduce, Value: item.Params["value"],
				Remaining: int(item.Params["duration"]),
			}
		}
		m.applyInitPenalty(actor, item.Params["initPenalty"])
	case EffectPSBoost:
		actor.Effects[EffectPSBoost] = &ActiveEffect{
			Key: EffectPSBoost, Value: item.Params["value"],
			Remaining: int(item.Params["duration"]),
		}
		if use := item.Params["waterUse"]; use > 0 {
			cost := int(math.Round(float64(actor.Stats.Capacity) * use))
			actor.Stats.CurrentWater -= cost
			if actor.Stats.CurrentWater < 0 {
				actor.Stats.CurrentWater = 0
			}
		}
	case EffectRootRotReduce:
		actor.Effects[EffectRootRotReduce] = &ActiveEffect{
			Key: EffectRootRotReduce, Value: item.Params["value"],
			Remaining: int(item.Params["duration"]),
		}
	case EffectNoSunburn:
		actor.Effects[EffectNoSunburn] = &ActiveEffect{
			Key: EffectNoSunburn, Value: 1,
			Remaining: int(item.Params["duration"]),
		}
	case EffectPhysBoost:
		actor.Effects[EffectPhysBoost] = &ActiveEffect{
			Key: EffectPhysBoost, Value: item.Params["damageBoost"],
			Remaining: int(item.Params["duration"]),
		}
	case EffectColdNullifyPSBoost:
		actor.Effects[EffectColdNullifyPSBoost] = &ActiveEffect{
			Key: EffectColdNullifyPSBoost, Value: 1,
			Remaining: int(item.Params["duration"]),
		}
	case EffectReserveWater:
		actor.ReserveWater = &ActiveEffect{
			Key: EffectReserveWater, Value: item.Params["value"], Remaining: 1,
		}
	default:
		m.addLog("未实现的道具效果", map[string]interface{}{
			"floran": actor.Name,
			"item":   item.ID,
			"effect": item.EffectKey,
		})
		return
	}

	m.addLog("使用道具", map[string]interface{}{
		"floran": actor.Name,
		"item":   item.ID,
		"effect": item.EffectKey,
	})
}

// applyInitPenalty 道具附带的先攻惩罚
func (m *Match) applyInitPenalty(f *Floran, pct float64) {
	if pct <= 0 {
		return
	}
	f.Stats.Initiative = int(math.Round(float64(f.Stats.Initiative) * (1 - pct)))
}

// koPhase 淘汰判定，单体判定顺序：HP > 脱水 > 烂根
func (m *Match) koPhase() {
	m.phase = PhaseKO

	var koFlags [2]bool
	var koReasons [2]KOReason

	for idx, f := range m.florans {
		switch {
		case f.Stats.HP <= 0:
			koFlags[idx] = true
			koReasons[idx] = KOReasonHP
		case f.Stats.CurrentWater <= 0:
			koFlags[idx] = true
			koReasons[idx] = KOReasonDehydration
		case f.RootRot && f.OverWaterStacks >= rootRotKOStacks:
			koFlags[idx] = true
			koReasons[idx] = KOReasonRootRot
		}
		if koFlags[idx] {
			m.addLog("淘汰", map[string]interface{}{
				"floran": f.Name,
				"reason": koReasons[idx],
			})
		}
	}

	switch {
	case koFlags[0] && koFlags[1]:
		// 双方同时倒下判为平局
		m.isFinished = true
		m.winnerIndex = nil
		m.koReason = KOReasonHP
		m.addLog("对战结束", map[string]interface{}{"winner": nil, "reason": m.koReason})
	case koFlags[0]:
		m.finishWith(1, koReasons[0])
	case koFlags[1]:
		m.finishWith(0, koReasons[1])
	}
}

// finishWith 以指定胜者结束对战
func (m *Match) finishWith(winner int, reason KOReason) {
	m.isFinished = true
	w := winner
	m.winnerIndex = &w
	m.koReason = reason
	m.addLog("对战结束", map[string]interface{}{
		"winner": winner,
		"reason": reason,
	})
}

// Forfeit 判负：指定一方弃权（断线超时），另一方直接获胜
func (m *Match) Forfeit(loser int) {
	if m.isFinished || loser < 0 || loser > 1 {
		return
	}
	m.finishWith(1-loser, KOReasonForfeit)
}

// endOfRound 回合收尾：冷却与临时效果计数衰减
func (m *Match) endOfRound() {
	m.phase = PhaseEndOfRound

	for _, f := range m.florans {
		for id, cd := range f.Cooldowns {
			if cd > 0 {
				f.Cooldowns[id] = cd - 1
			}
		}
		for key, e := range f.Effects {
			e.Remaining--
			if e.Remaining <= 0 {
				delete(f.Effects, key)
			}
		}
	}

	m.addLog("回合结束", map[string]interface{}{"round": m.round})
}

// Snapshot 返回当前对战状态的只读快照（深拷贝，不泄漏内部可变引用）
func (m *Match) Snapshot() MatchView {
	var florans [2]FloranView
	for i, f := range m.florans {
		statuses := make([]StatusEffect, len(f.Statuses))
		copy(statuses, f.Statuses)
		florans[i] = FloranView{
			SpeciesID:       f.SpeciesID,
			Name:            f.Name,
			HP:              f.Stats.HP,
			MaxHP:           f.Stats.MaxHP,
			CurrentWater:    f.Stats.CurrentWater,
			Capacity:        f.Stats.Capacity,
			Surface:         f.Stats.Surface,
			Initiative:      f.Stats.Initiative,
			Offense:         f.Stats.Offense,
			Defense:         f.Stats.Defense,
			Resistances:     f.Stats.Resistances,
			OverWaterStacks: f.OverWaterStacks,
			RootRot:         f.RootRot,
			Statuses:        statuses,
		}
	}

	logs := make([]LogEntry, len(m.logs))
	copy(logs, m.logs)

	var winner *int
	if m.winnerIndex != nil {
		w := *m.winnerIndex
		winner = &w
	}

	return MatchView{
		Round:       m.round,
		Phase:       m.phase,
		Weather:     m.weather,
		Florans:     florans,
		Logs:        logs,
		IsFinished:  m.isFinished,
		WinnerIndex: winner,
		KOReason:    m.koReason,
	}
}

// addLog 追加对战日志
func (m *Match) addLog(message string, details map[string]interface{}) {
	m.logs = append(m.logs, LogEntry{
		Round:   m.round,
		Phase:   m.phase,
		Message: message,
		Details: details,
	})
}
