package battle

import "testing"

// botView 构造机器人视角的对战快照
func botView(weather WeatherType, playerWater, botWater int) MatchView {
	return MatchView{
		Round:   1,
		Weather: weather,
		Florans: [2]FloranView{
			{SpeciesID: "sunflower", HP: 90, MaxHP: 90, CurrentWater: playerWater, Capacity: 100},
			{SpeciesID: "cactus", HP: 120, MaxHP: 120, CurrentWater: botWater, Capacity: 100},
		},
	}
}

func TestChooseBotCommand(t *testing.T) {
	tests := []struct {
		name       string
		state      MatchView
		difficulty AIDifficulty
		wantType   CommandType
		wantItem   string
		wantTarget int
	}{
		{
			name:       "缺水时优先浇水",
			state:      botView(WeatherCoolDry, 80, 25),
			difficulty: AIEasy,
			wantType:   CommandItem,
			wantItem:   "watering_can",
			wantTarget: 1,
		},
		{
			name:       "水量充足时攻击",
			state:      botView(WeatherCoolDry, 80, 80),
			difficulty: AIEasy,
			wantType:   CommandAttack,
			wantTarget: 0,
		},
		{
			name:       "普通难度酷热天气下铺覆盖物",
			state:      botView(WeatherHotDry, 80, 80),
			difficulty: AINormal,
			wantType:   CommandItem,
			wantItem:   "mulch",
			wantTarget: 1,
		},
		{
			name:       "简单难度不做酷热预判",
			state:      botView(WeatherHotDry, 80, 80),
			difficulty: AIEasy,
			wantType:   CommandAttack,
			wantTarget: 0,
		},
		{
			name:       "对手缺水时不浪费道具",
			state:      botView(WeatherHotDry, 30, 80),
			difficulty: AIHard,
			wantType:   CommandAttack,
			wantTarget: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := ChooseBotCommand(tt.state, tt.difficulty)
			if cmd.Type != tt.wantType {
				t.Errorf("指令类型 = %s, 期望 %s", cmd.Type, tt.wantType)
			}
			if cmd.ItemID != tt.wantItem {
				t.Errorf("道具 = %s, 期望 %s", cmd.ItemID, tt.wantItem)
			}
			if cmd.TargetIndex != tt.wantTarget {
				t.Errorf("目标 = %d, 期望 %d", cmd.TargetIndex, tt.wantTarget)
			}
		})
	}
}

func TestChooseBotCommandWhenDown(t *testing.T) {
	state := botView(WeatherCoolDry, 80, 80)
	state.Florans[1].HP = 0

	cmd := ChooseBotCommand(state, AIHard)
	if cmd.Type != CommandAttack {
		t.Errorf("倒下后的占位指令类型 = %s, 期望 %s", cmd.Type, CommandAttack)
	}
}

func TestValidDifficulty(t *testing.T) {
	for _, d := range []AIDifficulty{AIEasy, AINormal, AIHard} {
		if !ValidDifficulty(d) {
			t.Errorf("%s 应为合法难度", d)
		}
	}
	if ValidDifficulty("nightmare") {
		t.Error("未知难度不应通过校验")
	}
}
