package game

import (
	"testing"

	"github.com/decker502/dungeonrun/pkg/types"
)

// TestBusSubscribe 测试通知总线订阅与取消
func TestBusSubscribe(t *testing.T) {
	bus := NewBus()
	var first, second []NotificationKind

	unsubscribe := bus.Subscribe(func(n Notification) { first = append(first, n.Kind()) })
	bus.Subscribe(func(n Notification) { second = append(second, n.Kind()) })

	bus.Notify(RankUnlocked{Rank: types.RankB})
	unsubscribe()
	unsubscribe()
	bus.Notify(RankCleared{Rank: types.RankC})

	if len(first) != 1 || first[0] != KindRankUnlocked {
		t.Errorf("first listener got %v", first)
	}
	if len(second) != 2 || second[1] != KindRankCleared {
		t.Errorf("second listener got %v", second)
	}
}

// TestChannelNotifierDropsWhenFull 测试通道满时丢弃而不阻塞
func TestChannelNotifierDropsWhenFull(t *testing.T) {
	ch := NewChannelNotifier(1)

	ch.Notify(RankUnlocked{Rank: types.RankB})
	ch.Notify(RankUnlocked{Rank: types.RankA})
	ch.Close()

	var got []Notification
	for n := range ch.C() {
		got = append(got, n)
	}
	if len(got) != 1 || got[0].RankID() != types.RankB {
		t.Errorf("received %v, want only rank B", got)
	}
}

// TestNotifierFunc 测试函数适配器
func TestNotifierFunc(t *testing.T) {
	var got Notification
	var n Notifier = NotifierFunc(func(x Notification) { got = x })
	n.Notify(RunAbandoned{Rank: types.RankS})
	if got == nil || got.Kind() != KindRunAbandoned || got.RankID() != types.RankS {
		t.Errorf("got %v", got)
	}
}
