package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/decker502/dungeonrun/pkg/config"
	"github.com/decker502/dungeonrun/pkg/game"
	"github.com/decker502/dungeonrun/pkg/types"
)

var (
	rankFlag    = flag.String("rank", "C", "Rank to run (C, B, A, S, SS, SSS)")
	playerLevel = flag.Int("level", 25, "Player level")
	currency    = flag.Int("currency", 500000, "Starting currency")
	keys        = flag.Int("keys", 0, "Starting keys")
	ranksPath   = flag.String("ranks", "data/dungeon/ranks.yaml", "Rank config YAML")
	catalogPath = flag.String("catalog", "data/dungeon/catalog.yaml", "Content catalog YAML")
	branchID    = flag.String("branch", "", "Branch to take on branch floors (default: first option)")
	clearMs     = flag.Int("clear-ms", 1000, "Simulated clear time per floor in milliseconds")
	snapshot    = flag.String("snapshot", "", "Write a run snapshot after the first floor and verify it loads back")
	unlockAll   = flag.Bool("unlock-all", false, "Unlock every rank before entering")
)

func main() {
	flag.Parse()
	log.SetOutput(os.Stdout)

	rank, ok := types.ParseRank(*rankFlag)
	if !ok {
		log.Fatalf("❌ FATAL: Unknown rank %q", *rankFlag)
	}
	log.Printf("=== Verifying Dungeon Run for Rank %s ===", rank)

	rankCfg, err := config.LoadDungeonConfig(*ranksPath)
	if err != nil {
		log.Fatalf("❌ FATAL: Failed to load rank config: %v", err)
	}
	catalog, err := config.LoadContentCatalog(*catalogPath)
	if err != nil {
		log.Fatalf("❌ FATAL: Failed to load catalog: %v", err)
	}
	log.Printf("✅ Content loaded: %d floors, %d characters", len(catalog.FloorIDs()), len(catalog.Characters()))

	bus := game.NewBus()
	bus.Subscribe(func(n game.Notification) {
		log.Printf("   📣 %s (rank %s)", n.Kind(), n.RankID())
	})

	state := game.NewProgressionState()
	if *unlockAll {
		state.UnlockedRanks = types.AllRanks()
	}
	wallet := game.NewWallet(*playerLevel, *currency, *keys)
	ctrl := game.NewRunController(game.BuildRankCatalog(rankCfg, catalog), catalog, state, wallet, game.RunControllerOptions{
		Notifier:       bus,
		DefaultRouteID: rankCfg.DefaultRouteID,
		RecentRunLimit: rankCfg.RecentRunLimit,
	})

	def, _ := ctrl.Rank(rank)
	log.Printf("Rank %s: floors=%d rooms/floor=%d daily=%d cost=%d/%d route=%s boss=%s",
		def.ID, def.Floors, def.RoomsPerFloor, def.DailyEntries, def.EntryCostCurrency, def.EntryCostKeys, def.RouteID, def.Boss)

	gate := ctrl.CanEnter(rank, wallet.Level())
	if !gate.Allowed {
		log.Fatalf("❌ FATAL: Cannot enter: [%s] %s", gate.Code, gate.Reason)
	}

	res, err := ctrl.Enter(rank)
	if err != nil {
		log.Fatalf("❌ FATAL: Enter failed: %v", err)
	}
	log.Printf("✅ Entered run %s on route %s", res.RunID, res.RouteID)
	log.Printf("   - Sequence: %v", res.Sequence)
	log.Printf("   - Wallet after entry: currency=%d keys=%d", wallet.Currency(), wallet.Keys())

	for {
		adv, err := ctrl.Advance(game.AdvanceOptions{ClearTime: time.Duration(*clearMs) * time.Millisecond})
		if err != nil {
			log.Fatalf("❌ FATAL: Advance failed: %v", err)
		}

		if adv.Status == game.AdvanceBranchRequired {
			choice := *branchID
			if choice == "" {
				choice = adv.Branches[0].ID
			}
			log.Printf("   🔀 Floor %d requires a branch, taking %q", adv.Room.FloorNumber, choice)
			adv, err = ctrl.Advance(game.AdvanceOptions{BranchID: choice, ClearTime: time.Duration(*clearMs) * time.Millisecond})
			if err != nil {
				log.Fatalf("❌ FATAL: Advance with branch failed: %v", err)
			}
		}

		if adv.Status == game.AdvanceFinished {
			log.Printf("🏁 Run finished: %d/%d floors in %v", adv.Summary.FloorsCleared, adv.Summary.TotalFloors, adv.Summary.Elapsed)
			break
		}

		room := adv.Room
		marker := ""
		if room.Placeholder {
			marker = " ⚠️  placeholder"
		}
		log.Printf("   ➡️  Floor %d: %s [%s] x%.2f%s", room.FloorNumber, room.TemplateID, room.Type, room.RewardMultiplier, marker)

		if *snapshot != "" && adv.FloorIndex == 1 {
			verifySnapshot(ctrl.GetActiveRun(), *snapshot)
		}
	}

	p := ctrl.GetRankProgress(rank)
	log.Printf("Progress %s: %d/%d (%.0f%%)", rank, p.Cleared, p.Total, p.Percent)
	if !ctrl.IsRankCleared(rank) {
		log.Fatalf("❌ FATAL: Rank %s should be cleared", rank)
	}
	if next, ok := rank.Next(); ok && !state.IsUnlocked(next) {
		log.Fatalf("❌ FATAL: Rank %s should be unlocked", next)
	}

	for _, s := range ctrl.GetAvailableRanks(wallet.Level()) {
		status := "🔒"
		if s.Allowed {
			status = "✅"
		}
		log.Printf("   %s %-3s unlocked=%v cleared=%v remaining=%d %s", status, s.Rank, s.Unlocked, s.Cleared, s.EntriesRemaining, s.Reason)
	}
	log.Printf("✅ Verification passed")
}

// verifySnapshot 写入挑战快照并确认可以读回
func verifySnapshot(run *game.RunState, path string) {
	serializer := game.NewRunSerializer()
	if err := serializer.SaveRun(run, path); err != nil {
		log.Fatalf("❌ FATAL: Snapshot write failed: %v", err)
	}
	loaded, err := serializer.LoadRun(path)
	if err != nil {
		log.Fatalf("❌ FATAL: Snapshot read failed: %v", err)
	}
	if loaded.ID != run.ID || loaded.FloorIndex != run.FloorIndex {
		log.Fatalf("❌ FATAL: Snapshot mismatch: %s/%d vs %s/%d", loaded.ID, loaded.FloorIndex, run.ID, run.FloorIndex)
	}
	log.Printf("   💾 Snapshot verified: %s", path)
}
