package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/decker502/dungeonrun/pkg/game"
	"github.com/gorilla/websocket"
)

/* ----------------------------- Networking ---------------------------- */

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMsg struct {
	Type string `json:"type"`
	// can_enter / enter / progress
	Rank string `json:"rank,omitempty"`
	// advance
	Branch      string `json:"branch,omitempty"`
	ClearTimeMs int64  `json:"clearTimeMs,omitempty"`
}

type responseMsg struct {
	Type  string `json:"type"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type notificationMsg struct {
	Type string `json:"type"` // "notification"
	Kind string `json:"kind"`
	Rank string `json:"rank"`
	Data any    `json:"data,omitempty"`
}

// serveWS 处理 GET /ws?player=<id>
// 读循环是连接上唯一的写入方：先写命令响应，再写命令产生的通知
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player")
	if err := game.ValidatePlayerID(playerID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := s.openSession(playerID)
	if err != nil {
		log.Printf("[Server] open session for %s: %v", playerID, err)
		http.Error(w, "failed to load progression", http.StatusInternalServerError)
		return
	}
	defer sess.close()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	defer conn.Close()

	_ = conn.WriteJSON(responseMsg{Type: "hello", OK: true, Data: map[string]string{"session": sess.id, "player": playerID}})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var m wsMsg
		if err := json.Unmarshal(data, &m); err != nil {
			_ = conn.WriteJSON(responseMsg{Type: "error", Error: "malformed command"})
			continue
		}

		if err := conn.WriteJSON(s.handle(sess, m)); err != nil {
			return
		}
		for _, n := range sess.pending() {
			if err := conn.WriteJSON(n); err != nil {
				return
			}
		}
	}
}
