package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/decker502/dungeonrun/pkg/config"
	"github.com/decker502/dungeonrun/pkg/embedded"
	"github.com/decker502/dungeonrun/pkg/game"
	"github.com/decker502/dungeonrun/pkg/storage/sqlite"
	"github.com/decker502/dungeonrun/pkg/types"
	"github.com/google/uuid"
)

// 嵌入的默认数据文件
const (
	embeddedRanksPath   = "data/dungeon/ranks.yaml"
	embeddedCatalogPath = "data/dungeon/catalog.yaml"
)

// notificationBuffer 每个连接缓存的通知数量
const notificationBuffer = 64

// loadContent 加载等级配置与内容目录
// 路径为空时使用嵌入的默认文件
func loadContent(env config.ServerEnv) (*config.DungeonConfig, *config.Catalog, error) {
	var (
		rankCfg *config.DungeonConfig
		catalog *config.Catalog
		err     error
	)

	if env.RanksPath != "" {
		rankCfg, err = config.LoadDungeonConfig(env.RanksPath)
	} else {
		var data []byte
		if data, err = embedded.ReadFile(embeddedRanksPath); err == nil {
			rankCfg, err = config.ParseDungeonConfig(data)
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load rank config: %w", err)
	}

	if env.CatalogPath != "" {
		catalog, err = config.LoadContentCatalog(env.CatalogPath)
	} else {
		var data []byte
		if data, err = embedded.ReadFile(embeddedCatalogPath); err == nil {
			catalog, err = config.ParseContentCatalog(data)
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load content catalog: %w", err)
	}

	return rankCfg, catalog, nil
}

// openBackend 按配置打开存档后端
//
// 返回：
//   - game.SaveBackend: gdata 不可用时为 nil（降级模式）
//   - func() error: 关闭函数
func openBackend(env config.ServerEnv) (game.SaveBackend, func() error, error) {
	noop := func() error { return nil }

	switch env.Storage {
	case config.StorageMemory:
		return game.NewMemoryBackend(), noop, nil
	case config.StorageGdata:
		backend, err := game.OpenGdataBackend(env.AppName)
		if err != nil {
			log.Printf("[Server] Warning: %v, running in degraded mode", err)
			return nil, noop, nil
		}
		return backend, noop, nil
	case config.StorageSQLite:
		store, err := sqlite.Open(env.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		players, err := store.ListPlayers(ctx)
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("list saved players: %w", err)
		}
		log.Printf("[Server] SQLite store %s opened with %d saved players", env.SQLitePath, len(players))
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage %q", env.Storage)
}

// playerEntry 同一玩家的全部连接共享的数据
// mu 串行化该玩家的所有命令
type playerEntry struct {
	mu     sync.Mutex
	wallet *game.Wallet
}

// Server 地牢命令服务
type Server struct {
	ranks   map[types.RankID]*game.RankDefinition
	catalog config.ContentCatalog
	rankCfg *config.DungeonConfig
	store   *game.ProgressionStore
	start   game.Wallet
	clock   func() time.Time

	mu      sync.Mutex
	players map[string]*playerEntry
}

// NewServer 创建命令服务
//
// 参数：
//   - rankCfg: 等级静态配置
//   - catalog: 内容目录
//   - store: 进度存储
//   - start: 新玩家的初始账户
func NewServer(rankCfg *config.DungeonConfig, catalog config.ContentCatalog, store *game.ProgressionStore, start game.Wallet) *Server {
	return &Server{
		ranks:   game.BuildRankCatalog(rankCfg, catalog),
		catalog: catalog,
		rankCfg: rankCfg,
		store:   store,
		start:   start,
		clock:   time.Now,
		players: make(map[string]*playerEntry),
	}
}

func (s *Server) player(playerID string) *playerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		w := s.start
		p = &playerEntry{wallet: &w}
		s.players[playerID] = p
	}
	return p
}

// session 单个连接的命令上下文
type session struct {
	id       string
	playerID string
	player   *playerEntry
	ctrl     *game.RunController
	events   *game.ChannelNotifier
}

// openSession 为玩家创建连接会话
func (s *Server) openSession(playerID string) (*session, error) {
	state, err := s.store.EnsureState(playerID)
	if err != nil {
		return nil, err
	}
	entry := s.player(playerID)
	events := game.NewChannelNotifier(notificationBuffer)

	sess := &session{
		id:       uuid.NewString(),
		playerID: playerID,
		player:   entry,
		events:   events,
		ctrl: game.NewRunController(s.ranks, s.catalog, state, entry.wallet, game.RunControllerOptions{
			Notifier:       events,
			Clock:          s.clock,
			DefaultRouteID: s.rankCfg.DefaultRouteID,
			RecentRunLimit: s.rankCfg.RecentRunLimit,
		}),
	}
	log.Printf("[Server] Session %s opened for player %s", sess.id, playerID)
	return sess, nil
}

func (sess *session) close() {
	sess.events.Close()
	log.Printf("[Server] Session %s closed", sess.id)
}

// pending 取出命令执行期间产生的通知
func (sess *session) pending() []notificationMsg {
	var out []notificationMsg
	for {
		select {
		case n := <-sess.events.C():
			out = append(out, notificationMsg{
				Type: "notification",
				Kind: string(n.Kind()),
				Rank: string(n.RankID()),
				Data: notificationData(n),
			})
		default:
			return out
		}
	}
}

// handle 执行一条命令
// 同一玩家的命令在 player.mu 下串行执行，改变进度的命令执行后立即保存
func (s *Server) handle(sess *session, m wsMsg) responseMsg {
	sess.player.mu.Lock()
	defer sess.player.mu.Unlock()

	resp := responseMsg{Type: m.Type}
	data, mutated, err := s.dispatch(sess, m)
	if mutated {
		if saveErr := s.store.Save(sess.playerID); saveErr != nil {
			log.Printf("[Server] Warning: failed to save progression for %s: %v", sess.playerID, saveErr)
		}
	}
	if err != nil {
		resp.Error = err.Error()
		var gateErr *game.GateError
		if errors.As(err, &gateErr) {
			resp.Data = gateDTO{Code: string(gateErr.Code), Reason: gateErr.Reason}
		}
		return resp
	}
	resp.OK = true
	resp.Data = data
	return resp
}

func (s *Server) dispatch(sess *session, m wsMsg) (any, bool, error) {
	ctrl := sess.ctrl

	switch m.Type {
	case "available":
		ranks := ctrl.GetAvailableRanks(sess.player.wallet.Level())
		out := make([]rankDTO, len(ranks))
		for i, r := range ranks {
			out[i] = rankDTO{
				Rank:             string(r.Rank),
				DisplayName:      r.DisplayName,
				Icon:             r.Icon,
				UnlockLevel:      r.UnlockLevel,
				Unlocked:         r.Unlocked,
				Cleared:          r.Cleared,
				EntriesUsed:      r.EntriesUsed,
				EntriesRemaining: r.EntriesRemaining,
				Allowed:          r.Allowed,
				Reason:           r.Reason,
				BestTime:         r.BestTime,
			}
		}
		return out, false, nil

	case "progress":
		ids := types.AllRanks()
		if m.Rank != "" {
			rank, err := parseRank(m.Rank)
			if err != nil {
				return nil, false, err
			}
			ids = []types.RankID{rank}
		}
		out := make([]progressDTO, len(ids))
		for i, id := range ids {
			p := ctrl.GetRankProgress(id)
			out[i] = progressDTO{Rank: string(p.Rank), Cleared: p.Cleared, Total: p.Total, Percent: p.Percent}
		}
		return out, false, nil

	case "can_enter":
		rank, err := parseRank(m.Rank)
		if err != nil {
			return nil, false, err
		}
		g := ctrl.CanEnter(rank, sess.player.wallet.Level())
		return gateDTO{Allowed: g.Allowed, Code: string(g.Code), Reason: g.Reason}, false, nil

	case "enter":
		rank, err := parseRank(m.Rank)
		if err != nil {
			return nil, false, err
		}
		res, err := ctrl.Enter(rank)
		if err != nil {
			return nil, false, err
		}
		return enterDTO{RunID: res.RunID, RouteID: res.RouteID, Sequence: res.Sequence, Room: toRoom(res.Room)}, true, nil

	case "advance":
		res, err := ctrl.Advance(game.AdvanceOptions{
			BranchID:  m.Branch,
			ClearTime: time.Duration(m.ClearTimeMs) * time.Millisecond,
		})
		if err != nil {
			return nil, false, err
		}
		dto := advanceDTO{
			Status:     string(res.Status),
			FloorIndex: res.FloorIndex,
			Room:       toRoom(res.Room),
			Branches:   toBranches(res.Branches),
		}
		if res.Summary != nil {
			dto.Summary = toSummary(*res.Summary)
		}
		return dto, res.Status != game.AdvanceBranchRequired, nil

	case "abandon":
		summary, err := ctrl.Abandon()
		if err != nil {
			return nil, false, err
		}
		return toSummary(summary), true, nil

	case "active_run":
		return toRun(ctrl.GetActiveRun()), false, nil

	case "timeline":
		floors := ctrl.GetFloorTimeline()
		out := make([]floorDTO, len(floors))
		for i, f := range floors {
			out[i] = floorDTO{
				FloorIndex:  f.FloorIndex,
				FloorNumber: f.FloorNumber,
				TemplateID:  f.TemplateID,
				State:       string(f.State),
				Branch:      f.Branch,
			}
		}
		return out, false, nil

	case "wallet":
		w := sess.player.wallet
		return walletDTO{Level: w.Level(), Currency: w.Currency(), Keys: w.Keys()}, false, nil
	}

	return nil, false, fmt.Errorf("unknown command %q", m.Type)
}

func parseRank(s string) (types.RankID, error) {
	rank, ok := types.ParseRank(s)
	if !ok {
		return "", fmt.Errorf("%w %q", game.ErrUnknownRank, s)
	}
	return rank, nil
}
