package game

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/decker502/dungeonrun/pkg/config"
)

// RunSaveVersion 挑战快照版本号
// 当 RunState 发生不兼容变更时递增
const RunSaveVersion = 1

// RunSaveData 挑战快照
//
// 使用 gob 二进制格式序列化：
//   - 紧凑，Go 原生支持
//   - 类型安全
//   - 不易被玩家手动修改
type RunSaveData struct {
	Version  int       // 快照版本号
	SaveTime time.Time // 保存时间
	Run      RunState  // 挑战状态
}

// RunSerializer 挑战状态序列化器
//
// 负责把进行中的挑战写成二进制快照，以及从快照恢复。
// 不修改进度，仅负责序列化/反序列化。
type RunSerializer struct{}

// NewRunSerializer 创建序列化器实例
func NewRunSerializer() *RunSerializer {
	return &RunSerializer{}
}

// Encode 将挑战编码为快照字节
func (s *RunSerializer) Encode(run *RunState) ([]byte, error) {
	if run == nil {
		return nil, fmt.Errorf("RunState is nil")
	}

	var buf bytes.Buffer
	saveData := RunSaveData{Version: RunSaveVersion, SaveTime: time.Now(), Run: *run}
	if err := gob.NewEncoder(&buf).Encode(&saveData); err != nil {
		return nil, fmt.Errorf("failed to encode run snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode 从快照字节恢复挑战
//
// 会进行版本兼容性检查，版本不匹配时返回错误。
func (s *RunSerializer) Decode(data []byte) (*RunState, error) {
	var saveData RunSaveData
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&saveData); err != nil {
		return nil, fmt.Errorf("failed to decode run snapshot: %w", err)
	}

	if saveData.Version != RunSaveVersion {
		return nil, fmt.Errorf("incompatible run snapshot version: %d (expected %d)",
			saveData.Version, RunSaveVersion)
	}

	run := saveData.Run
	run.normalize()
	return &run, nil
}

// SaveRun 保存挑战快照到文件
//
// 参数：
//   - run: 挑战状态
//   - filePath: 保存文件路径
func (s *RunSerializer) SaveRun(run *RunState, filePath string) error {
	data, err := s.Encode(run)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write run snapshot: %w", err)
	}

	log.Printf("[RunSerializer] Saved run to %s: Rank=%s, Floor=%d/%d, Branches=%d",
		filePath, run.Rank, run.FloorNumber(), len(run.Sequence), len(run.BranchChoices))
	return nil
}

// LoadRun 从文件加载挑战快照
func (s *RunSerializer) LoadRun(filePath string) (*RunState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run snapshot: %w", err)
	}

	run, err := s.Decode(data)
	if err != nil {
		return nil, err
	}

	log.Printf("[RunSerializer] Loaded run from %s: Rank=%s, Floor=%d/%d",
		filePath, run.Rank, run.FloorNumber(), len(run.Sequence))
	return run, nil
}

// normalize gob 不传输空映射，解码后补齐
func (r *RunState) normalize() {
	if r.BranchChoices == nil {
		r.BranchChoices = make(map[int]config.BranchOption)
	}
	if r.ClearedFloors == nil {
		r.ClearedFloors = make(map[int]FloorClear)
	}
	if r.Modifiers == nil {
		r.Modifiers = make(config.Modifiers)
	}
}
