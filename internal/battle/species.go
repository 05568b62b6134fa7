package battle

// SpeciesBaseStats 物种基础属性模板
type SpeciesBaseStats struct {
	HP         int
	Capacity   int
	Surface    float64
	Initiative int
	Offense    int
	Defense    int
}

// Species 物种静态数据
type Species struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Role        string           `json:"role"`
	BiomeType   string           `json:"biome_type"`
	BaseStats   SpeciesBaseStats `json:"base_stats"`
	Resistances Resistances      `json:"resistances"`
	SkillIDs    []string         `json:"skill_ids,omitempty"`
}

// MaxResistance 抗性上限
const MaxResistance = 0.85

// 物种表为进程级不可变数据，启动时加载一次，只读访问
var speciesTable = []Species{
	{
		ID: "sunflower", Name: "Sonnenblume", Role: "offense", BiomeType: "temperate",
		BaseStats:   SpeciesBaseStats{HP: 90, Capacity: 90, Surface: 1.5, Initiative: 80, Offense: 70, Defense: 50},
		Resistances: Resistances{Heat: 0.6, Cold: 0.45, Dry: 0.55, Wet: 0.5, Wind: 0.45, Salt: 0.5},
		SkillIDs:    []string{"sun_blade"},
	},
	{
		ID: "cactus", Name: "Kaktus", Role: "tank", BiomeType: "desert",
		BaseStats:   SpeciesBaseStats{HP: 120, Capacity: 130, Surface: 0.9, Initiative: 60, Offense: 55, Defense: 80},
		Resistances: Resistances{Heat: 0.85, Cold: 0.45, Dry: 0.85, Wet: 0.35, Wind: 0.55, Salt: 0.5},
		SkillIDs:    []string{"thorn_burst", "sap_storage"},
	},
	{
		ID: "aloe", Name: "Aloe", Role: "support", BiomeType: "desert",
		BaseStats:   SpeciesBaseStats{HP: 95, Capacity: 110, Surface: 1.0, Initiative: 70, Offense: 45, Defense: 60},
		Resistances: Resistances{Heat: 0.8, Cold: 0.5, Dry: 0.8, Wet: 0.4, Wind: 0.55, Salt: 0.5},
		SkillIDs:    []string{"gel_heal"},
	},
	{
		ID: "water_lily", Name: "Seerose", Role: "tank", BiomeType: "aquatic",
		BaseStats:   SpeciesBaseStats{HP: 110, Capacity: 120, Surface: 1.0, Initiative: 55, Offense: 50, Defense: 80},
		Resistances: Resistances{Heat: 0.55, Cold: 0.55, Dry: 0.4, Wet: 0.85, Wind: 0.5, Salt: 0.6},
	},
	{
		ID: "bamboo", Name: "Bambus", Role: "speed", BiomeType: "temperate",
		BaseStats:   SpeciesBaseStats{HP: 85, Capacity: 85, Surface: 1.2, Initiative: 120, Offense: 65, Defense: 45},
		Resistances: Resistances{Heat: 0.55, Cold: 0.5, Dry: 0.5, Wet: 0.5, Wind: 0.4, Salt: 0.5},
	},
	{
		ID: "sundew", Name: "Sonnentau", Role: "dot", BiomeType: "swamp",
		BaseStats:   SpeciesBaseStats{HP: 80, Capacity: 100, Surface: 1.2, Initiative: 70, Offense: 65, Defense: 55},
		Resistances: Resistances{Heat: 0.55, Cold: 0.55, Dry: 0.45, Wet: 0.7, Wind: 0.5, Salt: 0.5},
		SkillIDs:    []string{"spore_drift"},
	},
	{
		ID: "venus_flytrap", Name: "Venusfliegenfalle", Role: "control", BiomeType: "swamp",
		BaseStats:   SpeciesBaseStats{HP: 85, Capacity: 95, Surface: 1.1, Initiative: 75, Offense: 60, Defense: 60},
		Resistances: Resistances{Heat: 0.55, Cold: 0.55, Dry: 0.45, Wet: 0.7, Wind: 0.5, Salt: 0.5},
	},
	{
		ID: "nettle", Name: "Brennnessel", Role: "dot", BiomeType: "temperate",
		BaseStats:   SpeciesBaseStats{HP: 80, Capacity: 90, Surface: 1.0, Initiative: 90, Offense: 65, Defense: 50},
		Resistances: Resistances{Heat: 0.6, Cold: 0.55, Dry: 0.5, Wet: 0.5, Wind: 0.5, Salt: 0.5},
	},
	{
		ID: "tomato", Name: "Tomate", Role: "burst", BiomeType: "temperate",
		BaseStats:   SpeciesBaseStats{HP: 85, Capacity: 95, Surface: 1.0, Initiative: 85, Offense: 75, Defense: 50},
		Resistances: Resistances{Heat: 0.55, Cold: 0.5, Dry: 0.45, Wet: 0.5, Wind: 0.45, Salt: 0.5},
	},
}

// AllSpecies 返回全部物种（副本）
func AllSpecies() []Species {
	out := make([]Species, len(speciesTable))
	copy(out, speciesTable)
	return out
}

// SpeciesByID 按ID查找物种，未找到时返回第一个物种作为缺省
func SpeciesByID(id string) Species {
	for _, s := range speciesTable {
		if s.ID == id {
			return s
		}
	}
	return speciesTable[0]
}

// SpeciesExists 判断物种是否存在
func SpeciesExists(id string) bool {
	for _, s := range speciesTable {
		if s.ID == id {
			return true
		}
	}
	return false
}

// clampResist 将抗性限制在[0, MaxResistance]
func clampResist(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxResistance {
		return MaxResistance
	}
	return v
}

// clampResistances 对六维抗性逐项限幅
func clampResistances(r Resistances) Resistances {
	return Resistances{
		Heat: clampResist(r.Heat),
		Cold: clampResist(r.Cold),
		Dry:  clampResist(r.Dry),
		Wet:  clampResist(r.Wet),
		Wind: clampResist(r.Wind),
		Salt: clampResist(r.Salt),
	}
}

// NewFloran 按物种模板创建对战植物实例
func NewFloran(speciesID string) *Floran {
	sp := SpeciesByID(speciesID)
	return &Floran{
		SpeciesID: sp.ID,
		Name:      sp.Name,
		Stats: Stats{
			HP:           sp.BaseStats.HP,
			MaxHP:        sp.BaseStats.HP,
			Capacity:     sp.BaseStats.Capacity,
			CurrentWater: sp.BaseStats.Capacity,
			Surface:      sp.BaseStats.Surface,
			Initiative:   sp.BaseStats.Initiative,
			Offense:      sp.BaseStats.Offense,
			Defense:      sp.BaseStats.Defense,
			Resistances:  clampResistances(sp.Resistances),
		},
		Statuses:  []StatusEffect{},
		Effects:   make(map[string]*ActiveEffect),
		Cooldowns: make(map[string]int),
	}
}
