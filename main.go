package main

import (
	"log"
	"net/http"

	"github.com/decker502/dungeonrun/pkg/config"
	"github.com/decker502/dungeonrun/pkg/embedded"
	"github.com/decker502/dungeonrun/pkg/game"
)

func main() {
	embedded.Init(dataFS)

	env, err := config.LoadServerEnv()
	if err != nil {
		log.Fatalf("[Server] %v", err)
	}

	rankCfg, catalog, err := loadContent(env)
	if err != nil {
		log.Fatalf("[Server] %v", err)
	}

	backend, closeBackend, err := openBackend(env)
	if err != nil {
		log.Fatalf("[Server] open %s storage: %v", env.Storage, err)
	}
	defer func() {
		if err := closeBackend(); err != nil {
			log.Printf("[Server] close storage: %v", err)
		}
	}()

	srv := NewServer(rankCfg, catalog, game.NewProgressionStore(backend),
		*game.NewWallet(env.StartLevel, env.StartCurrency, env.StartKeys))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.serveWS)

	log.Printf("[Server] Dungeon run server listening on %s (storage=%s, ranks=%d, floors=%d)",
		env.Addr, env.Storage, len(rankCfg.Ranks), len(catalog.FloorIDs()))
	if err := http.ListenAndServe(env.Addr, mux); err != nil {
		log.Fatalf("[Server] %v", err)
	}
}
