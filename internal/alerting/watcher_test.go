package alerting

import (
	"context"
	"errors"
	"testing"
	"time"

	"coindash/internal/market"
)

type recordingNotifier struct {
	notes []Notification
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, note Notification) error {
	if r.err != nil {
		return r.err
	}
	r.notes = append(r.notes, note)
	return nil
}

func change(v float64) *float64 { return &v }

func TestWatcherThresholdAndCooldown(t *testing.T) {
	rec := &recordingNotifier{}
	w := NewWatcher(rec, WatcherOptions{ThresholdPct: 5, Cooldown: time.Hour}, testLogger())
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	assets := []market.Asset{
		{ID: "bitcoin", ChangePct24h: change(-6)},
		{ID: "ethereum", ChangePct24h: change(4.99)},
		{ID: "solana", ChangePct24h: change(5)},
		{ID: "odd"},
	}

	sent, err := w.Check(context.Background(), assets, "usd")
	if err != nil || sent != 2 {
		t.Fatalf("应发送 2 条告警, 实际 %d (%v)", sent, err)
	}
	if rec.notes[0].Direction != "down" || rec.notes[1].Direction != "up" {
		t.Fatalf("方向错误: %#v", rec.notes)
	}

	now = now.Add(30 * time.Minute)
	if sent, _ := w.Check(context.Background(), assets, "usd"); sent != 0 {
		t.Fatalf("冷却期内不应重复告警, 实际 %d", sent)
	}

	now = now.Add(time.Hour)
	if sent, _ := w.Check(context.Background(), assets, "usd"); sent != 2 {
		t.Fatalf("冷却期后应再次告警, 实际 %d", sent)
	}
}

func TestWatcherFailedSendIsRetried(t *testing.T) {
	rec := &recordingNotifier{err: errors.New("down")}
	w := NewWatcher(rec, WatcherOptions{ThresholdPct: 1, Cooldown: time.Hour}, testLogger())
	assets := []market.Asset{{ID: "bitcoin", ChangePct24h: change(10)}}

	if _, err := w.Check(context.Background(), assets, "usd"); err == nil {
		t.Fatal("发送失败应返回错误")
	}
	rec.err = nil
	if sent, err := w.Check(context.Background(), assets, "usd"); err != nil || sent != 1 {
		t.Fatalf("失败后不应进入冷却, 实际 %d (%v)", sent, err)
	}
}

func TestNilWatcherIsNoop(t *testing.T) {
	var w *Watcher
	if sent, err := w.Check(context.Background(), nil, "usd"); sent != 0 || err != nil {
		t.Fatal("nil Watcher 应为空操作")
	}
}
