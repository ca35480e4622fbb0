package game

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

// 存档属性名
const (
	progressionProp = "progression" // 进度文档（YAML）
	runProp         = "run"         // 进行中挑战快照（gob），空数据表示没有挑战
)

// playerIDPattern 玩家ID只能包含字母、数字、下划线和连字符
var playerIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// SaveBackend 存档后端
// 方法签名与 gdata.Manager 一致，*gdata.Manager 可以直接作为后端使用
//
// LoadObjectProp 约定：属性不存在时返回包装 fs.ErrNotExist 的错误，
// 或者像 gdata 一样返回 (nil, nil)；其他错误一律视为读取失败。
type SaveBackend interface {
	SaveObjectProp(object, prop string, data []byte) error
	LoadObjectProp(object, prop string) ([]byte, error)
}

// BatchSaveBackend 支持一次性写入多个属性的后端
// SaveObjectProps 必须全部成功或全部不生效
type BatchSaveBackend interface {
	SaveBackend
	SaveObjectProps(object string, props map[string][]byte) error
}

// ProgressionStore 进度存储
//
// 职责：
//   - 按玩家懒加载/创建 ProgressionState（每个玩家一份）
//   - 将进度文档保存为 YAML，将进行中的挑战保存为二进制快照
//
// 架构说明：
//   - backend 为 nil 时为降级模式：仅内存，不持久化
//   - 状态对象由调用方持有并交给 RunController，本结构只负责缓存与存取
type ProgressionStore struct {
	mu         sync.Mutex
	backend    SaveBackend
	serializer *RunSerializer
	states     map[string]*ProgressionState
}

// NewProgressionStore 创建进度存储
//
// 参数：
//   - backend: 存档后端，可为 nil（降级模式）
func NewProgressionStore(backend SaveBackend) *ProgressionStore {
	return &ProgressionStore{
		backend:    backend,
		serializer: NewRunSerializer(),
		states:     make(map[string]*ProgressionState),
	}
}

// ValidatePlayerID 验证玩家ID合法性
func ValidatePlayerID(playerID string) error {
	if !playerIDPattern.MatchString(playerID) {
		return fmt.Errorf("invalid player id %q: must be 1-32 letters, digits, '_' or '-'", playerID)
	}
	return nil
}

// EnsureState 获取玩家进度
//
// 幂等：已缓存时直接返回；否则从后端加载；都没有时创建新进度（默认解锁最低等级）。
//
// 返回：
//   - *ProgressionState: 玩家进度
//   - error: 玩家ID非法或存档损坏时返回错误
func (s *ProgressionStore) EnsureState(playerID string) (*ProgressionState, error) {
	if err := ValidatePlayerID(playerID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.states[playerID]; ok {
		return state, nil
	}

	state, err := s.load(playerID)
	if err != nil {
		return nil, err
	}
	s.states[playerID] = state
	return state, nil
}

// load 从后端加载进度，没有存档时创建新进度
//
// 只有"属性不存在"才视为新玩家；后端的其他错误（如数据库被锁）直接返回，
// 避免用新进度覆盖真实存档。
func (s *ProgressionStore) load(playerID string) (*ProgressionState, error) {
	if s.backend == nil {
		return NewProgressionState(), nil
	}

	data, err := s.loadProp(playerID, progressionProp)
	if err != nil {
		return nil, fmt.Errorf("failed to load progression for %s: %w", playerID, err)
	}
	if len(data) == 0 {
		log.Printf("[ProgressionStore] No progression for %s, creating new one", playerID)
		return NewProgressionState(), nil
	}

	var state ProgressionState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse progression for %s: %w", playerID, err)
	}
	state.normalize()

	runData, err := s.loadProp(playerID, runProp)
	if err != nil {
		return nil, fmt.Errorf("failed to load run snapshot for %s: %w", playerID, err)
	}
	if len(runData) > 0 {
		run, err := s.serializer.Decode(runData)
		if err != nil {
			return nil, fmt.Errorf("run snapshot for %s: %w", playerID, err)
		}
		state.ActiveRun = run
	}

	log.Printf("[ProgressionStore] Loaded progression for %s: unlocked=%v activeRun=%v",
		playerID, state.UnlockedRanks, state.ActiveRun != nil)
	return &state, nil
}

// loadProp 读取属性，不存在时返回 (nil, nil)
func (s *ProgressionStore) loadProp(playerID, prop string) ([]byte, error) {
	data, err := s.backend.LoadObjectProp(playerID, prop)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Save 保存玩家进度
//
// 后端支持批量写入时，进度文档与挑战快照在一次写入中完成；
// 否则先写挑战快照再写进度文档，进度文档写入失败时旧进度保持不变。
// 降级模式下返回 nil（不报错）
func (s *ProgressionStore) Save(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[playerID]
	if !ok {
		return fmt.Errorf("no progression loaded for player %s", playerID)
	}
	if s.backend == nil {
		return nil
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal progression: %w", err)
	}
	var runData []byte
	if state.ActiveRun != nil {
		if runData, err = s.serializer.Encode(state.ActiveRun); err != nil {
			return err
		}
	}

	if batch, ok := s.backend.(BatchSaveBackend); ok {
		props := map[string][]byte{progressionProp: data, runProp: runData}
		if err := batch.SaveObjectProps(playerID, props); err != nil {
			return fmt.Errorf("failed to save progression: %w", err)
		}
		return nil
	}

	if err := s.backend.SaveObjectProp(playerID, runProp, runData); err != nil {
		return fmt.Errorf("failed to save run snapshot: %w", err)
	}
	if err := s.backend.SaveObjectProp(playerID, progressionProp, data); err != nil {
		return fmt.Errorf("failed to save progression: %w", err)
	}
	return nil
}

// MemoryBackend 内存存档后端（测试和 memory 存储模式使用）
type MemoryBackend struct {
	mu    sync.Mutex
	props map[string][]byte
}

// NewMemoryBackend 创建内存后端
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{props: make(map[string][]byte)}
}

func memoryKey(object, prop string) string {
	return object + "/" + prop
}

// SaveObjectProp 保存属性（复制数据）
func (m *MemoryBackend) SaveObjectProp(object, prop string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.props[memoryKey(object, prop)] = append([]byte(nil), data...)
	return nil
}

// LoadObjectProp 读取属性
func (m *MemoryBackend) LoadObjectProp(object, prop string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.props[memoryKey(object, prop)]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", object, prop, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

// SaveObjectProps 在一次加锁内写入多个属性
func (m *MemoryBackend) SaveObjectProps(object string, props map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for prop, data := range props {
		m.props[memoryKey(object, prop)] = append([]byte(nil), data...)
	}
	return nil
}
