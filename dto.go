package main

import (
	"github.com/decker502/dungeonrun/pkg/config"
	"github.com/decker502/dungeonrun/pkg/game"
)

/* ------------------------------ Wire DTOs ------------------------------ */

type branchDTO struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Modifiers map[string]float64 `json:"modifiers,omitempty"`
}

type spawnDTO struct {
	Enemy string `json:"enemy"`
	Count int    `json:"count"`
}

type rewardDTO struct {
	Item   string `json:"item"`
	Amount int    `json:"amount"`
}

type roomDTO struct {
	FloorIndex       int         `json:"floorIndex"`
	FloorNumber      int         `json:"floorNumber"`
	TemplateID       string      `json:"templateId"`
	Type             string      `json:"type"`
	Description      string      `json:"description"`
	Icon             string      `json:"icon,omitempty"`
	Rooms            int         `json:"rooms"`
	Branches         []branchDTO `json:"branches,omitempty"`
	Spawns           []spawnDTO  `json:"spawns,omitempty"`
	Rewards          []rewardDTO `json:"rewards,omitempty"`
	RewardMultiplier float64     `json:"rewardMultiplier"`
	Placeholder      bool        `json:"placeholder,omitempty"`
}

type summaryDTO struct {
	RunID         string `json:"runId"`
	Rank          string `json:"rank"`
	RouteID       string `json:"routeId"`
	Outcome       string `json:"outcome"`
	FloorsCleared int    `json:"floorsCleared"`
	TotalFloors   int    `json:"totalFloors"`
	ElapsedMs     int64  `json:"elapsedMs"`
}

type enterDTO struct {
	RunID    string   `json:"runId"`
	RouteID  string   `json:"routeId"`
	Sequence []string `json:"sequence"`
	Room     *roomDTO `json:"room"`
}

type advanceDTO struct {
	Status     string      `json:"status"`
	FloorIndex int         `json:"floorIndex"`
	Room       *roomDTO    `json:"room,omitempty"`
	Branches   []branchDTO `json:"branches,omitempty"`
	Summary    *summaryDTO `json:"summary,omitempty"`
}

type gateDTO struct {
	Allowed bool   `json:"allowed"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type rankDTO struct {
	Rank             string `json:"rank"`
	DisplayName      string `json:"displayName"`
	Icon             string `json:"icon"`
	UnlockLevel      int    `json:"unlockLevel"`
	Unlocked         bool   `json:"unlocked"`
	Cleared          bool   `json:"cleared"`
	EntriesUsed      int    `json:"entriesUsed"`
	EntriesRemaining int    `json:"entriesRemaining"`
	Allowed          bool   `json:"allowed"`
	Reason           string `json:"reason,omitempty"`
	BestTime         string `json:"bestTime,omitempty"`
}

type progressDTO struct {
	Rank    string  `json:"rank"`
	Cleared int     `json:"cleared"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

type floorDTO struct {
	FloorIndex  int    `json:"floorIndex"`
	FloorNumber int    `json:"floorNumber"`
	TemplateID  string `json:"templateId"`
	State       string `json:"state"`
	Branch      string `json:"branch,omitempty"`
}

type runDTO struct {
	ID         string             `json:"id"`
	Rank       string             `json:"rank"`
	RouteID    string             `json:"routeId"`
	Sequence   []string           `json:"sequence"`
	FloorIndex int                `json:"floorIndex"`
	Modifiers  map[string]float64 `json:"modifiers"`
	Room       *roomDTO           `json:"room,omitempty"`
	Timeline   int                `json:"timelineEntries"`
}

type walletDTO struct {
	Level    int `json:"level"`
	Currency int `json:"currency"`
	Keys     int `json:"keys"`
}

func toBranches(in []config.BranchOption) []branchDTO {
	if len(in) == 0 {
		return nil
	}
	out := make([]branchDTO, len(in))
	for i, b := range in {
		out[i] = branchDTO{ID: b.ID, Label: b.Label, Modifiers: b.Modifiers}
	}
	return out
}

func toRoom(r *game.Room) *roomDTO {
	if r == nil {
		return nil
	}
	dto := &roomDTO{
		FloorIndex:       r.FloorIndex,
		FloorNumber:      r.FloorNumber,
		TemplateID:       r.TemplateID,
		Type:             r.Type,
		Description:      r.Description,
		Icon:             r.Icon,
		Rooms:            r.Rooms,
		Branches:         toBranches(r.Branches),
		RewardMultiplier: r.RewardMultiplier,
		Placeholder:      r.Placeholder,
	}
	for _, s := range r.Spawns {
		dto.Spawns = append(dto.Spawns, spawnDTO{Enemy: s.Enemy, Count: s.Count})
	}
	for _, rw := range r.Rewards {
		dto.Rewards = append(dto.Rewards, rewardDTO{Item: rw.Item, Amount: rw.Amount})
	}
	return dto
}

func toSummary(s game.RunSummary) *summaryDTO {
	return &summaryDTO{
		RunID:         s.RunID,
		Rank:          string(s.Rank),
		RouteID:       s.RouteID,
		Outcome:       string(s.Outcome),
		FloorsCleared: s.FloorsCleared,
		TotalFloors:   s.TotalFloors,
		ElapsedMs:     s.Elapsed.Milliseconds(),
	}
}

func toRun(r *game.RunState) *runDTO {
	if r == nil {
		return nil
	}
	return &runDTO{
		ID:         r.ID,
		Rank:       string(r.Rank),
		RouteID:    r.RouteID,
		Sequence:   r.Sequence,
		FloorIndex: r.FloorIndex,
		Modifiers:  r.Modifiers,
		Room:       toRoom(r.CurrentRoom),
		Timeline:   len(r.Timeline),
	}
}

// notificationData 通知的附加数据，等级解锁/通关没有附加数据
func notificationData(n game.Notification) any {
	switch v := n.(type) {
	case game.RunEntered:
		return enterDTO{RunID: v.RunID, RouteID: v.RouteID, Sequence: v.Sequence, Room: toRoom(&v.Room)}
	case game.NextRoomReady:
		return advanceDTO{Status: string(game.AdvanceNextRoom), FloorIndex: v.FloorIndex, Room: toRoom(&v.Room)}
	case game.RunFinished:
		return toSummary(v.Summary)
	case game.RunAbandoned:
		return toSummary(v.Summary)
	}
	return nil
}
