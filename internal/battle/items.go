package battle

// ItemCategory 道具类别（生效时机）
type ItemCategory string

const (
	ItemCategoryInstant    ItemCategory = "instant"    // 立即生效
	ItemCategoryPreStatus  ItemCategory = "preStatus"  // 状态阶段前挂载
	ItemCategoryPreResolve ItemCategory = "preResolve" // 结算前挂载
	ItemCategoryUtility    ItemCategory = "utility"    // 条件触发类
)

// 道具效果键，引擎按键分派效果实现
const (
	EffectWaterInstant        = "water_instant"
	EffectWaterPrecise        = "water_precise"
	EffectHealAndWater        = "heal_and_water"
	EffectTranspReduce        = "transp_reduce"
	EffectPhysBoost           = "phys_boost"
	EffectPSBoost             = "ps_boost"
	EffectRootRotReduce       = "rootrot_progress_reduce"
	EffectNoSunburn           = "no_sunburn"
	EffectColdNullifyPSBoost  = "cold_nullify_ps_boost"
	EffectReserveWater        = "reserve_water"
)

// Item 道具静态定义
type Item struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Rarity    string             `json:"rarity"`
	Category  ItemCategory       `json:"category"`
	EffectKey string             `json:"effect_key"`
	Params    map[string]float64 `json:"params"`
}

// 道具表为进程级不可变数据
var itemTable = []Item{
	{
		ID: "watering_can", Name: "Gießkanne", Rarity: "common", Category: ItemCategoryInstant,
		EffectKey: EffectWaterInstant,
		Params:    map[string]float64{"value": 20, "overflowStack": 0.5},
	},
	{
		ID: "watering_wand", Name: "Gießstab", Rarity: "common", Category: ItemCategoryInstant,
		EffectKey: EffectWaterPrecise,
		Params:    map[string]float64{"value": 15},
	},
	{
		ID: "compost_tea", Name: "Komposttee-Kanne", Rarity: "uncommon", Category: ItemCategoryInstant,
		EffectKey: EffectHealAndWater,
		Params:    map[string]float64{"hpPct": 0.1, "water": 10, "nextInitPenalty": 0.05},
	},
	{
		ID: "mulch", Name: "Mulch-Sack", Rarity: "uncommon", Category: ItemCategoryPreStatus,
		EffectKey: EffectTranspReduce,
		Params:    map[string]float64{"value": 0.3, "duration": 3, "initPenalty": 0.05},
	},
	{
		ID: "fertilizer_pellets", Name: "Dünger-Pellets", Rarity: "uncommon", Category: ItemCategoryPreStatus,
		EffectKey: EffectPSBoost,
		Params:    map[string]float64{"value": 0.25, "duration": 2, "waterUse": 0.1},
	},
	{
		ID: "drainage_gravel", Name: "Drainage-Kies", Rarity: "uncommon", Category: ItemCategoryPreStatus,
		EffectKey: EffectRootRotReduce,
		Params:    map[string]float64{"value": 0.5, "duration": 3, "rainPenalty": 0.2},
	},
	{
		ID: "stake", Name: "Rankhilfe", Rarity: "uncommon", Category: ItemCategoryPreResolve,
		EffectKey: EffectPhysBoost,
		Params:    map[string]float64{"damageBoost": 0.15, "sizeBoost": 0.1, "windVuln": 0.2, "duration": 3},
	},
	{
		ID: "pot_xl", Name: "Topf XL", Rarity: "rare", Category: ItemCategoryInstant,
		EffectKey: EffectTranspReduce,
		Params:    map[string]float64{"value": 0, "capacityBonus": 30, "initPenalty": 0.05},
	},
	{
		ID: "shade_cloth", Name: "Schattentuch", Rarity: "uncommon", Category: ItemCategoryPreStatus,
		EffectKey: EffectNoSunburn,
		Params:    map[string]float64{"duration": 2, "psPenalty": 0.15},
	},
	{
		ID: "heat_lamp", Name: "Wärmelampe", Rarity: "uncommon", Category: ItemCategoryPreStatus,
		EffectKey: EffectColdNullifyPSBoost,
		Params:    map[string]float64{"psBoost": 0.1, "transpBoost": 0.1, "duration": 2},
	},
	{
		ID: "hydrogel_beads", Name: "Hydrogel-Perlen", Rarity: "rare", Category: ItemCategoryUtility,
		EffectKey: EffectReserveWater,
		Params:    map[string]float64{"value": 15, "triggerBelowPct": 0.2, "overflowStack": 1},
	},
}

// AllItems 返回全部道具（副本）
func AllItems() []Item {
	out := make([]Item, len(itemTable))
	copy(out, itemTable)
	return out
}

// ItemByID 按ID查找道具
func ItemByID(id string) (Item, bool) {
	for _, it := range itemTable {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
