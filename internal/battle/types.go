package battle

// MatchPhase 回合阶段
type MatchPhase string

const (
	PhaseStartOfRound       MatchPhase = "StartOfRound"
	PhaseApplyEnvironment   MatchPhase = "ApplyEnvironment"
	PhaseApplyPassiveStatus MatchPhase = "ApplyPassiveStatus"
	PhaseCommand            MatchPhase = "CommandPhase"
	PhaseResolution         MatchPhase = "ResolutionPhase"
	PhaseKO                 MatchPhase = "KOPhase"
	PhaseEndOfRound         MatchPhase = "EndOfRound"
)

// WeatherType 天气类型，每回合由对战随机流采样
type WeatherType string

const (
	WeatherHotDry    WeatherType = "HotDry"
	WeatherCoolDry   WeatherType = "CoolDry"
	WeatherLightRain WeatherType = "LightRain"
	WeatherHeavyRain WeatherType = "HeavyRain"
	WeatherWindy     WeatherType = "Windy"
	WeatherCloudy    WeatherType = "Cloudy"
)

// StatusType 状态效果类型
type StatusType string

const (
	StatusWilt           StatusType = "Wilt"
	StatusRootRot        StatusType = "RootRot"
	StatusSpores         StatusType = "Spores"
	StatusSunburn        StatusType = "Sunburn"
	StatusThorn          StatusType = "Thorn"
	StatusLeafLoss       StatusType = "LeafLoss"
	StatusBuffResistance StatusType = "BuffResistance"
	StatusBuffOffense    StatusType = "BuffOffense"
	StatusBuffDefense    StatusType = "BuffDefense"
	StatusBuffInitiative StatusType = "BuffInitiative"
)

// CommandType 指令类型
type CommandType string

const (
	CommandAttack CommandType = "ATTACK"
	CommandSkill  CommandType = "SKILL"
	CommandItem   CommandType = "ITEM"
	CommandSwitch CommandType = "SWITCH"
)

// KOReason 淘汰原因，按优先级排列：HP > 脱水 > 烂根
type KOReason string

const (
	KOReasonHP          KOReason = "HP"
	KOReasonDehydration KOReason = "DEHYDRATION"
	KOReasonRootRot     KOReason = "ROOT_ROT"
	KOReasonForfeit     KOReason = "FORFEIT"
)

// Resistances 六维抗性，取值范围[0, 0.85]
type Resistances struct {
	Heat float64 `json:"heat"`
	Cold float64 `json:"cold"`
	Dry  float64 `json:"dry"`
	Wet  float64 `json:"wet"`
	Wind float64 `json:"wind"`
	Salt float64 `json:"salt"`
}

// Stats 植物战斗属性
type Stats struct {
	HP           int         `json:"hp"`
	MaxHP        int         `json:"max_hp"`
	Capacity     int         `json:"capacity"`      // 最大储水量
	CurrentWater int         `json:"current_water"` // 当前水量
	Surface      float64     `json:"surface"`       // 叶面系数，放大光合与风敏感度
	Initiative   int         `json:"initiative"`    // 先攻值，决定结算顺序
	Offense      int         `json:"offense"`
	Defense      int         `json:"defense"`
	Resistances  Resistances `json:"resistances"`
}

// StatusEffect 状态效果实例
// Persistent为true的状态（烂根）不随回合衰减，只能被净化移除。
type StatusEffect struct {
	Type       StatusType `json:"type"`
	Duration   int        `json:"duration"`
	Persistent bool       `json:"persistent"`
	Stacks     int        `json:"stacks"`
	DotPct     float64    `json:"dot_pct,omitempty"` // 每回合按最大HP百分比扣血
}

// ActiveEffect 临时道具/技能效果，按剩余回合数衰减
type ActiveEffect struct {
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Remaining int     `json:"remaining"`
}

// Floran 一场对战中的植物实例（随对战创建与销毁）
type Floran struct {
	SpeciesID      string                   `json:"species_id"`
	Name           string                   `json:"name"`
	Stats          Stats                    `json:"stats"`
	OverWaterStacks int                     `json:"over_water_stacks"`
	RootRot        bool                     `json:"root_rot"`
	Statuses       []StatusEffect           `json:"statuses"`
	Effects        map[string]*ActiveEffect `json:"effects"`
	Cooldowns      map[string]int           `json:"cooldowns"`
	ReserveWater   *ActiveEffect            `json:"reserve_water,omitempty"` // 低水量自动触发的储备水

	// 过涝进度的带权累积值，OverWaterStacks取其向下取整，只增不减
	overWaterProgress float64
}

// WaterRatio 当前水量占比
func (f *Floran) WaterRatio() float64 {
	if f.Stats.Capacity <= 0 {
		return 0
	}
	return float64(f.Stats.CurrentWater) / float64(f.Stats.Capacity)
}

// EffectValue 返回指定临时效果的数值，不存在时返回0
func (f *Floran) EffectValue(key string) float64 {
	if e, ok := f.Effects[key]; ok && e.Remaining > 0 {
		return e.Value
	}
	return 0
}

// HasEffect 判断临时效果是否生效中
func (f *Floran) HasEffect(key string) bool {
	e, ok := f.Effects[key]
	return ok && e.Remaining > 0
}

// Command 玩家或机器人下达的回合指令
type Command struct {
	Type        CommandType `json:"type"`
	TargetIndex int         `json:"target_index"`
	ItemID      string      `json:"item_id,omitempty"`
	SkillID     string      `json:"skill_id,omitempty"`
}

// LogEntry 对战日志条目（仅追加）
type LogEntry struct {
	Round   int                    `json:"round"`
	Phase   MatchPhase             `json:"phase"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// FloranView 植物状态只读投影
type FloranView struct {
	SpeciesID       string         `json:"species_id"`
	Name            string         `json:"name"`
	HP              int            `json:"hp"`
	MaxHP           int            `json:"max_hp"`
	CurrentWater    int            `json:"current_water"`
	Capacity        int            `json:"capacity"`
	Surface         float64        `json:"surface"`
	Initiative      int            `json:"initiative"`
	Offense         int            `json:"offense"`
	Defense         int            `json:"defense"`
	Resistances     Resistances    `json:"resistances"`
	OverWaterStacks int            `json:"over_water_stacks"`
	RootRot         bool           `json:"root_rot"`
	Statuses        []StatusEffect `json:"statuses"`
}

// MatchView 对战状态快照，所有字段均为防御性拷贝
type MatchView struct {
	Round       int            `json:"round"`
	Phase       MatchPhase     `json:"phase"`
	Weather     WeatherType    `json:"weather"`
	Florans     [2]FloranView  `json:"florans"`
	Logs        []LogEntry     `json:"logs"`
	IsFinished  bool           `json:"is_finished"`
	WinnerIndex *int           `json:"winner_index"` // nil表示平局或未结束
	KOReason    KOReason       `json:"ko_reason,omitempty"`
}
