package game

import (
	"testing"
	"time"

	"github.com/decker502/dungeonrun/pkg/config"
	"github.com/decker502/dungeonrun/pkg/types"
)

// testCatalogYAML 测试用内容目录
// route-c 没有分支层；route-b 第2层需要选择分支；route-a 引用了不存在的层
const testCatalogYAML = `
floors:
  - id: f1
    type: combat
    description: 骷髅大厅
    rewards:
      - {item: gold, amount: 100}
  - id: f2
    type: combat
  - id: f3
    type: elite
    rewards:
      - {item: gold, amount: 200}
  - id: f4
    type: boss
  - id: fork
    type: elite
    branches:
      - id: left
        label: 熔岩通道
        modifiers: {rewardMultiplier: 1.5, hazard: 2}
      - id: right
        label: 冰封通道
routes:
  - id: route-c
    rank: C
    floors: [f1, f2, f3, f4]
  - id: route-b
    rank: B
    floors: [f1, fork, f3]
    modifiers: {rewardMultiplier: 1.2}
  - id: route-a
    rank: A
    floors: [f1, ghost]
characters:
  - {id: goblin-king, name: 哥布林王}
  - {id: lich, name: 巫妖}
`

// fakeClock 可控时钟
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// notificationLog 记录收到的通知
type notificationLog struct {
	items []Notification
}

func (l *notificationLog) Notify(n Notification) {
	l.items = append(l.items, n)
}

func (l *notificationLog) count(kind NotificationKind) int {
	n := 0
	for _, item := range l.items {
		if item.Kind() == kind {
			n++
		}
	}
	return n
}

func (l *notificationLog) kinds() []NotificationKind {
	out := make([]NotificationKind, 0, len(l.items))
	for _, item := range l.items {
		out = append(out, item.Kind())
	}
	return out
}

// testEnv 测试环境
type testEnv struct {
	ctrl   *RunController
	state  *ProgressionState
	wallet *Wallet
	events *notificationLog
	clock  *fakeClock
}

// newTestEnv 创建测试环境
// mutate 可修改等级配置（如调整每日次数）
func newTestEnv(t *testing.T, wallet *Wallet, mutate func(cfg *config.DungeonConfig)) *testEnv {
	t.Helper()

	catalog, err := config.ParseContentCatalog([]byte(testCatalogYAML))
	if err != nil {
		t.Fatalf("ParseContentCatalog() error: %v", err)
	}
	cfg := config.DefaultDungeonConfig()
	if mutate != nil {
		mutate(cfg)
	}

	env := &testEnv{
		state:  NewProgressionState(),
		wallet: wallet,
		events: &notificationLog{},
		clock:  newFakeClock(),
	}
	env.ctrl = NewRunController(BuildRankCatalog(cfg, catalog), catalog, env.state, wallet, RunControllerOptions{
		Notifier: env.events,
		Clock:    env.clock.Now,
	})
	return env
}

// setRank 修改配置中的等级设置
func setRank(cfg *config.DungeonConfig, id types.RankID, fn func(rs *config.RankSettings)) {
	for i := range cfg.Ranks {
		if cfg.Ranks[i].ID == id {
			fn(&cfg.Ranks[i])
		}
	}
}

// richWallet 足够进入任何等级的账户
func richWallet() *Wallet {
	return NewWallet(99, 100_000_000, 100)
}
