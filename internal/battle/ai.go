package battle

// AIDifficulty 机器人难度
type AIDifficulty string

const (
	AIEasy   AIDifficulty = "easy"
	AINormal AIDifficulty = "normal"
	AIHard   AIDifficulty = "hard"
)

// ValidDifficulty 判断难度取值是否合法
func ValidDifficulty(d AIDifficulty) bool {
	return d == AIEasy || d == AINormal || d == AIHard
}

// ChooseBotCommand 根据对战快照生成机器人指令
// 约定：玩家固定在索引0，机器人固定在索引1。
func ChooseBotCommand(state MatchView, difficulty AIDifficulty) Command {
	player := state.Florans[0]
	bot := state.Florans[1]

	// 机器人已倒下时返回占位攻击
	if bot.HP <= 0 {
		return Command{Type: CommandAttack, TargetIndex: 0}
	}

	botWaterRatio := 0.0
	if bot.Capacity > 0 {
		botWaterRatio = float64(bot.CurrentWater) / float64(bot.Capacity)
	}

	// 优先防范脱水淘汰
	if botWaterRatio < 0.3 {
		return Command{Type: CommandItem, TargetIndex: 1, ItemID: "watering_can"}
	}

	// 较高难度在酷热天气下提前减蒸腾
	if difficulty != AIEasy && state.Weather == WeatherHotDry {
		playerWaterRatio := 0.0
		if player.Capacity > 0 {
			playerWaterRatio = float64(player.CurrentWater) / float64(player.Capacity)
		}
		if botWaterRatio > 0.6 && playerWaterRatio > 0.4 {
			return Command{Type: CommandItem, TargetIndex: 1, ItemID: "mulch"}
		}
	}

	return Command{Type: CommandAttack, TargetIndex: 0}
}
