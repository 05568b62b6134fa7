package battle

// RNG 对战专用的确定性伪随机数生成器（mulberry32）
// 每场对战持有唯一一条随机流，所有随机决策（天气、降雨、平局裁定）
// 按固定顺序从该流中抽取，保证相同种子可完整复现对战日志。
type RNG struct {
	state uint32
}

// NewRNG 以给定种子创建随机流
func NewRNG(seed uint32) *RNG {
	return &RNG{state: seed}
}

// Float64 返回[0,1)区间的随机数
func (r *RNG) Float64() float64 {
	r.state += 0x6d2b79f5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// Range 返回[min,max)区间的随机数
func (r *RNG) Range(min, max float64) float64 {
	return min + (max-min)*r.Float64()
}

// Intn 返回[0,n)区间的随机整数
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Float64() * float64(n))
}
