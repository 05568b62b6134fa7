package battle

// SkillArchetype 技能类型
type SkillArchetype string

const (
	SkillDirectDamage SkillArchetype = "DirectDamage"
	SkillDamageOverTime SkillArchetype = "DamageOverTime"
	SkillSupport      SkillArchetype = "Support"
)

// DamageType 伤害通道，决定消耗防守方哪一维抗性
type DamageType string

const (
	DamagePhysical DamageType = "Physical"
	DamageHeat     DamageType = "Heat"
	DamageCold     DamageType = "Cold"
	DamageSpore    DamageType = "Spore"
	DamageNeutral  DamageType = "Neutral"
)

// Skill 技能静态定义
type Skill struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Archetype     SkillArchetype `json:"archetype"`
	DamageType    DamageType     `json:"damage_type"`
	Target        string         `json:"target"` // Enemy / Self / AllyOrSelf
	Cooldown      int            `json:"cooldown"`
	Power         float64        `json:"power,omitempty"`          // DirectDamage倍率
	PSCoefficient float64        `json:"ps_coefficient,omitempty"` // 光合加成系数
	DotPctPerRound float64       `json:"dot_pct_per_round,omitempty"`
	DotDuration   int            `json:"dot_duration,omitempty"`
}

// 技能表为进程级不可变数据
var skillTable = []Skill{
	{
		ID: "sun_blade", Name: "Blattspreizung",
		Archetype: SkillDirectDamage, DamageType: DamageHeat, Target: "Enemy",
		Cooldown: 2, Power: 1.4, PSCoefficient: 0.8,
	},
	{
		ID: "thorn_burst", Name: "Dornenstoß",
		Archetype: SkillDirectDamage, DamageType: DamagePhysical, Target: "Enemy",
		Cooldown: 2, Power: 1.3, PSCoefficient: 0.3,
	},
	{
		ID: "sap_storage", Name: "Saftspeicher",
		// 效果等同mulch：临时降低蒸腾
		Archetype: SkillSupport, DamageType: DamageNeutral, Target: "Self",
		Cooldown: 3,
	},
	{
		ID: "gel_heal", Name: "Gel-Heilung",
		Archetype: SkillSupport, DamageType: DamageNeutral, Target: "AllyOrSelf",
		Cooldown: 3,
	},
	{
		ID: "spore_drift", Name: "Sporenfächer",
		Archetype: SkillDamageOverTime, DamageType: DamageSpore, Target: "Enemy",
		Cooldown: 3, DotPctPerRound: 0.08, DotDuration: 3,
	},
}

// AllSkills 返回全部技能（副本）
func AllSkills() []Skill {
	out := make([]Skill, len(skillTable))
	copy(out, skillTable)
	return out
}

// SkillByID 按ID查找技能
func SkillByID(id string) (Skill, bool) {
	for _, s := range skillTable {
		if s.ID == id {
			return s, true
		}
	}
	return Skill{}, false
}

// resistanceForChannel 返回防守方在指定伤害通道上的抗性
func resistanceForChannel(r Resistances, dt DamageType) float64 {
	switch dt {
	case DamageHeat:
		return r.Heat
	case DamageCold:
		return r.Cold
	case DamageSpore:
		return r.Wet // 孢子在潮湿环境繁殖，由湿抗削减
	default:
		return 0
	}
}
