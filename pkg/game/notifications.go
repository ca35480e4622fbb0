package game

import (
	"log"

	"github.com/decker502/dungeonrun/pkg/types"
)

// NotificationKind 通知类型
type NotificationKind string

const (
	KindRankUnlocked  NotificationKind = "rank_unlocked"
	KindRankCleared   NotificationKind = "rank_cleared"
	KindRunEntered    NotificationKind = "run_entered"
	KindNextRoomReady NotificationKind = "next_room_ready"
	KindRunFinished   NotificationKind = "run_finished"
	KindRunAbandoned  NotificationKind = "run_abandoned"
)

// Notification 发给展示/叙事/战斗协作方的通知
// 通知只是建议性的，引擎的正确性不依赖任何监听者
type Notification interface {
	Kind() NotificationKind
	RankID() types.RankID
}

// RankUnlocked 新等级解锁
type RankUnlocked struct {
	Rank types.RankID
}

// RankCleared 等级首次全部通关
type RankCleared struct {
	Rank types.RankID
}

// RunEntered 进入地牢，携带第一层内容
type RunEntered struct {
	Rank     types.RankID
	RunID    string
	RouteID  string
	Sequence []string
	Room     Room
}

// NextRoomReady 下一层已就绪
type NextRoomReady struct {
	Rank       types.RankID
	RunID      string
	FloorIndex int
	Room       Room
}

// RunFinished 挑战完成
type RunFinished struct {
	Rank    types.RankID
	Summary RunSummary
}

// RunAbandoned 挑战被放弃
type RunAbandoned struct {
	Rank    types.RankID
	Summary RunSummary
}

func (n RankUnlocked) Kind() NotificationKind  { return KindRankUnlocked }
func (n RankCleared) Kind() NotificationKind   { return KindRankCleared }
func (n RunEntered) Kind() NotificationKind    { return KindRunEntered }
func (n NextRoomReady) Kind() NotificationKind { return KindNextRoomReady }
func (n RunFinished) Kind() NotificationKind   { return KindRunFinished }
func (n RunAbandoned) Kind() NotificationKind  { return KindRunAbandoned }

func (n RankUnlocked) RankID() types.RankID  { return n.Rank }
func (n RankCleared) RankID() types.RankID   { return n.Rank }
func (n RunEntered) RankID() types.RankID    { return n.Rank }
func (n NextRoomReady) RankID() types.RankID { return n.Rank }
func (n RunFinished) RankID() types.RankID   { return n.Rank }
func (n RunAbandoned) RankID() types.RankID  { return n.Rank }

// Notifier 通知接收方
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc 函数适配器
type NotifierFunc func(n Notification)

// Notify 调用函数本身
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

type busListener struct {
	id int
	fn func(Notification)
}

// Bus 通知总线，按订阅顺序分发给所有监听者
type Bus struct {
	listeners []busListener
	nextID    int
}

// NewBus 创建通知总线
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe 订阅通知
//
// 返回：
//   - func(): 取消订阅函数，可重复调用
func (b *Bus) Subscribe(fn func(Notification)) func() {
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, busListener{id: id, fn: fn})
	return func() {
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify 分发通知
func (b *Bus) Notify(n Notification) {
	for _, l := range b.listeners {
		l.fn(n)
	}
}

// ChannelNotifier 把通知写入带缓冲的通道
// 通道满时丢弃通知，不阻塞引擎
type ChannelNotifier struct {
	ch chan Notification
}

// NewChannelNotifier 创建通道通知器
func NewChannelNotifier(buffer int) *ChannelNotifier {
	return &ChannelNotifier{ch: make(chan Notification, buffer)}
}

// Notify 非阻塞写入
func (c *ChannelNotifier) Notify(n Notification) {
	select {
	case c.ch <- n:
	default:
		log.Printf("[ChannelNotifier] Warning: channel full, dropped %s for rank %s", n.Kind(), n.RankID())
	}
}

// C 返回只读通道
func (c *ChannelNotifier) C() <-chan Notification {
	return c.ch
}

// Close 关闭通道，之后不能再调用 Notify
func (c *ChannelNotifier) Close() {
	close(c.ch)
}

// nopNotifier 未配置通知器时使用
type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}
