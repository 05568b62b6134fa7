package telemetry

import (
	"fmt"
	"testing"
)

func TestEmitAndRead(t *testing.T) {
	s := NewSink(10, nil)
	s.Emit(EventMatchEnded, map[string]interface{}{"match_id": "m1"})

	events := s.Events()
	if len(events) != 1 {
		t.Fatalf("事件数 = %d, 期望 1", len(events))
	}
	if events[0].Name != EventMatchEnded {
		t.Errorf("事件名 = %s, 期望 %s", events[0].Name, EventMatchEnded)
	}
	if events[0].At.IsZero() {
		t.Error("事件缺少时间戳")
	}
}

func TestRingEvictsOldest(t *testing.T) {
	s := NewSink(3, nil)
	for i := 0; i < 5; i++ {
		s.Emit(fmt.Sprintf("event_%d", i), nil)
	}

	events := s.Events()
	if len(events) != 3 {
		t.Fatalf("事件数 = %d, 期望 3", len(events))
	}
	if events[0].Name != "event_2" {
		t.Errorf("最旧事件 = %s, 期望 event_2", events[0].Name)
	}
	if events[2].Name != "event_4" {
		t.Errorf("最新事件 = %s, 期望 event_4", events[2].Name)
	}
}

func TestCounters(t *testing.T) {
	s := NewSink(10, nil)
	s.Inc("matches_PVE_BOT")
	s.Inc("matches_PVE_BOT")
	s.IncBy("matches_PVP_RANKED", 3)
	s.IncBy("matches_PVP_RANKED", -5) // 负增量忽略，计数器单调递增

	if v := s.Counter("matches_PVE_BOT"); v != 2 {
		t.Errorf("计数器 = %d, 期望 2", v)
	}
	if v := s.Counter("matches_PVP_RANKED"); v != 3 {
		t.Errorf("计数器 = %d, 期望 3", v)
	}

	snapshot := s.Counters()
	snapshot["matches_PVE_BOT"] = 99
	if s.Counter("matches_PVE_BOT") != 2 {
		t.Error("快照修改泄漏到内部计数器")
	}
}

func TestEventsSnapshotIsCopy(t *testing.T) {
	s := NewSink(10, nil)
	s.Emit("a", nil)

	events := s.Events()
	events[0].Name = "tampered"
	if s.Events()[0].Name != "a" {
		t.Error("事件快照应为副本")
	}
}
