package matchmaking

import "math"

// Elo积分参数
const (
	DefaultRating = 1200 // 新玩家初始积分
	KFactor       = 24   // 排位赛K系数
	MinRating     = 100  // 积分下限
)

// ExpectedScore A对B的期望胜率
func ExpectedScore(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// UpdatedRatings 按对战结果计算双方新积分
// scoreA取1（A胜）、0（A负）或0.5（平局），仅排位模式调用。
func UpdatedRatings(ratingA, ratingB int, scoreA float64) (int, int) {
	expectA := ExpectedScore(ratingA, ratingB)
	expectB := 1 - expectA

	newA := ratingA + int(math.Round(KFactor*(scoreA-expectA)))
	newB := ratingB + int(math.Round(KFactor*((1-scoreA)-expectB)))

	if newA < MinRating {
		newA = MinRating
	}
	if newB < MinRating {
		newB = MinRating
	}
	return newA, newB
}
