package battle

import "testing"

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(12345)
	b := NewRNG(12345)

	for i := 0; i < 1000; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("第%d次采样不一致", i)
		}
	}
}

func TestRNGDifferentSeeds(t *testing.T) {
	a := NewRNG(1)
	b := NewRNG(2)

	same := 0
	for i := 0; i < 100; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	if same == 100 {
		t.Error("不同种子产出完全相同的序列")
	}
}

func TestRNGFloat64Range(t *testing.T) {
	r := NewRNG(99)
	for i := 0; i < 10000; i++ {
		v := r.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("采样值超出[0,1): %v", v)
		}
	}
}

func TestRNGRange(t *testing.T) {
	r := NewRNG(7)
	for i := 0; i < 1000; i++ {
		v := r.Range(0.30, 0.60)
		if v < 0.30 || v >= 0.60 {
			t.Fatalf("区间采样越界: %v", v)
		}
	}
}

func TestRNGIntn(t *testing.T) {
	r := NewRNG(42)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := r.Intn(5)
		if v < 0 || v >= 5 {
			t.Fatalf("Intn越界: %d", v)
		}
		seen[v] = true
	}
	if len(seen) != 5 {
		t.Errorf("1000次采样仅覆盖%d个值", len(seen))
	}
}
