package game

import (
	"bytes"
	"encoding/gob"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/decker502/dungeonrun/pkg/config"
	"github.com/decker502/dungeonrun/pkg/types"
)

func sampleRun() *RunState {
	return &RunState{
		ID:         "run-1",
		Rank:       types.RankB,
		RouteID:    "route-b",
		Sequence:   []string{"f1", "fork", "f3"},
		FloorIndex: 1,
		BranchChoices: map[int]config.BranchOption{
			2: {ID: "left", Label: "熔岩通道"},
		},
		Modifiers:     config.Modifiers{config.ModRewardMultiplier: 1.5},
		StartTime:     time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
		ClearedFloors: map[int]FloorClear{1: {Cleared: true, Time: time.Second}},
		CurrentRoom:   &Room{FloorIndex: 1, FloorNumber: 2, TemplateID: "fork"},
	}
}

// TestRunSerializerRoundTrip 测试快照编码与解码
func TestRunSerializerRoundTrip(t *testing.T) {
	s := NewRunSerializer()
	data, err := s.Encode(sampleRun())
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	run, err := s.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if run.ID != "run-1" || run.FloorIndex != 1 || run.BranchChoices[2].ID != "left" {
		t.Errorf("decoded run = %+v", run)
	}
	if !run.StartTime.Equal(sampleRun().StartTime) {
		t.Errorf("StartTime = %v", run.StartTime)
	}
	if run.ClearedFloors[1].Time != time.Second {
		t.Errorf("ClearedFloors = %+v", run.ClearedFloors)
	}
}

// TestRunSerializerNormalizesEmptyMaps 测试解码后补齐空映射
func TestRunSerializerNormalizesEmptyMaps(t *testing.T) {
	s := NewRunSerializer()
	data, err := s.Encode(&RunState{ID: "bare", Rank: types.RankC, Sequence: []string{"f1"}})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	run, err := s.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if run.BranchChoices == nil || run.ClearedFloors == nil || run.Modifiers == nil {
		t.Errorf("maps should be initialized: %+v", run)
	}
}

// TestRunSerializerVersionMismatch 测试版本不匹配
func TestRunSerializerVersionMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&RunSaveData{Version: RunSaveVersion + 1, Run: *sampleRun()}); err != nil {
		t.Fatalf("gob encode error: %v", err)
	}

	_, err := NewRunSerializer().Decode(buf.Bytes())
	if err == nil || !strings.Contains(err.Error(), "incompatible run snapshot version") {
		t.Errorf("Decode() error = %v, want version error", err)
	}
}

// TestRunSerializerFile 测试文件读写
func TestRunSerializerFile(t *testing.T) {
	s := NewRunSerializer()
	path := filepath.Join(t.TempDir(), "run.sav")

	if err := s.SaveRun(sampleRun(), path); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}
	run, err := s.LoadRun(path)
	if err != nil {
		t.Fatalf("LoadRun() error: %v", err)
	}
	if run.RouteID != "route-b" || len(run.Sequence) != 3 {
		t.Errorf("loaded run = %+v", run)
	}

	if _, err := s.LoadRun(filepath.Join(t.TempDir(), "missing.sav")); err == nil {
		t.Error("LoadRun() on missing file should fail")
	}
	if _, err := s.Encode(nil); err == nil {
		t.Error("Encode(nil) should fail")
	}
}
