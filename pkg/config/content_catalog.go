package config

import (
	"fmt"
	"os"

	"github.com/decker502/dungeonrun/pkg/types"
	"gopkg.in/yaml.v3"
)

// ContentCatalog 只读内容目录
// 地牢引擎通过该接口查询层模板、路线和角色数据，查询缺失时返回 false 而不是报错
type ContentCatalog interface {
	// Floor 按ID查询层模板
	Floor(id string) (FloorTemplate, bool)
	// FloorIDs 按声明顺序返回全部层模板ID
	FloorIDs() []string
	// Route 按ID查询路线
	Route(id string) (Route, bool)
	// RouteForRank 返回第一条关联到指定等级的路线
	RouteForRank(rank types.RankID) (Route, bool)
	// Characters 按声明顺序返回角色列表
	Characters() []Character
}

// FloorTemplate 层模板
type FloorTemplate struct {
	ID          string         `yaml:"id"`          // 层模板ID，如 "crypt-hall"
	Type        string         `yaml:"type"`        // 层类型："combat", "elite", "treasure", "rest", "boss"
	Description string         `yaml:"description"` // 描述文本
	Icon        string         `yaml:"icon"`        // 图标资源ID
	Branches    []BranchOption `yaml:"branches"`    // 分支选项（可选），非空时必须先选择分支才能通关该层
	Spawns      []SpawnEntry   `yaml:"spawns"`      // 刷怪表
	Rewards     []RewardEntry  `yaml:"rewards"`     // 奖励表
}

// BranchOption 分支选项
type BranchOption struct {
	ID        string    `yaml:"id"`        // 分支ID
	Label     string    `yaml:"label"`     // 显示文本
	Modifiers Modifiers `yaml:"modifiers"` // 选择后合并到本次挑战的修饰符
}

// SpawnEntry 刷怪表条目
type SpawnEntry struct {
	Enemy string `yaml:"enemy"` // 敌人ID
	Count int    `yaml:"count"` // 数量
}

// RewardEntry 奖励表条目
type RewardEntry struct {
	Item   string `yaml:"item"`   // 物品ID
	Amount int    `yaml:"amount"` // 基础数量（实际数量乘以奖励倍率）
}

// Route 路线：有序的层模板序列加修饰符
type Route struct {
	ID        string       `yaml:"id"`        // 路线ID
	Name      string       `yaml:"name"`      // 路线名称
	Rank      types.RankID `yaml:"rank"`      // 关联等级（可选）
	Floors    []string     `yaml:"floors"`    // 层模板ID序列
	Modifiers Modifiers    `yaml:"modifiers"` // 路线修饰符
}

// Character 角色参考数据
type Character struct {
	ID     string   `yaml:"id"`     // 角色ID
	Name   string   `yaml:"name"`   // 名称
	Skills []string `yaml:"skills"` // 技能ID列表
}

// CatalogData 内容目录的YAML结构
type CatalogData struct {
	Floors     []FloorTemplate `yaml:"floors"`
	Routes     []Route         `yaml:"routes"`
	Characters []Character     `yaml:"characters"`
}

// Catalog 基于内存索引的 ContentCatalog 实现
type Catalog struct {
	data   CatalogData
	floors map[string]int
	routes map[string]int
}

// NewCatalog 根据目录数据建立索引
// 重复ID以第一次出现的为准
func NewCatalog(data CatalogData) *Catalog {
	c := &Catalog{
		data:   data,
		floors: make(map[string]int, len(data.Floors)),
		routes: make(map[string]int, len(data.Routes)),
	}
	for i, f := range data.Floors {
		if _, ok := c.floors[f.ID]; !ok {
			c.floors[f.ID] = i
		}
	}
	for i, r := range data.Routes {
		if _, ok := c.routes[r.ID]; !ok {
			c.routes[r.ID] = i
		}
	}
	return c
}

// LoadContentCatalog 从YAML文件加载内容目录
// 参数：
//
//	filepath - 目录文件路径
//
// 返回：
//
//	*Catalog - 验证通过的目录
//	error - 文件读取、解析或验证失败时返回错误
func LoadContentCatalog(filepath string) (*Catalog, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read content catalog %s: %w", filepath, err)
	}

	c, err := ParseContentCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("invalid content catalog in %s: %w", filepath, err)
	}
	return c, nil
}

// ParseContentCatalog 从YAML字节解析内容目录
func ParseContentCatalog(data []byte) (*Catalog, error) {
	var cd CatalogData
	if err := yaml.Unmarshal(data, &cd); err != nil {
		return nil, fmt.Errorf("failed to parse content catalog YAML: %w", err)
	}
	if err := validateCatalog(&cd); err != nil {
		return nil, err
	}
	return NewCatalog(cd), nil
}

// validateCatalog 验证目录数据
// 路线引用不存在的层模板是允许的，运行时会降级为占位层
func validateCatalog(cd *CatalogData) error {
	floorIDs := make(map[string]bool, len(cd.Floors))
	for i, f := range cd.Floors {
		if f.ID == "" {
			return fmt.Errorf("floors[%d]: id is required", i)
		}
		if floorIDs[f.ID] {
			return fmt.Errorf("floors[%d]: duplicate floor id %q", i, f.ID)
		}
		floorIDs[f.ID] = true

		branchIDs := make(map[string]bool, len(f.Branches))
		for j, b := range f.Branches {
			if b.ID == "" {
				return fmt.Errorf("floors[%d].branches[%d]: id is required", i, j)
			}
			if branchIDs[b.ID] {
				return fmt.Errorf("floors[%d].branches[%d]: duplicate branch id %q", i, j, b.ID)
			}
			branchIDs[b.ID] = true
		}
	}

	routeIDs := make(map[string]bool, len(cd.Routes))
	for i, r := range cd.Routes {
		if r.ID == "" {
			return fmt.Errorf("routes[%d]: id is required", i)
		}
		if routeIDs[r.ID] {
			return fmt.Errorf("routes[%d]: duplicate route id %q", i, r.ID)
		}
		routeIDs[r.ID] = true
		if r.Rank != "" && !r.Rank.IsValid() {
			return fmt.Errorf("routes[%d]: unknown rank %q", i, r.Rank)
		}
		for _, key := range []string{ModEntryCost, ModKeyCost} {
			if v, ok := r.Modifiers.Get(key); ok && v < 0 {
				return fmt.Errorf("routes[%d]: %s must be >= 0, got %v", i, key, v)
			}
		}
	}
	return nil
}

// Floor 按ID查询层模板
func (c *Catalog) Floor(id string) (FloorTemplate, bool) {
	i, ok := c.floors[id]
	if !ok {
		return FloorTemplate{}, false
	}
	return c.data.Floors[i], true
}

// FloorIDs 按声明顺序返回全部层模板ID
func (c *Catalog) FloorIDs() []string {
	ids := make([]string, 0, len(c.data.Floors))
	for _, f := range c.data.Floors {
		ids = append(ids, f.ID)
	}
	return ids
}

// Route 按ID查询路线
func (c *Catalog) Route(id string) (Route, bool) {
	i, ok := c.routes[id]
	if !ok {
		return Route{}, false
	}
	return c.data.Routes[i], true
}

// RouteForRank 返回第一条关联到指定等级的路线
func (c *Catalog) RouteForRank(rank types.RankID) (Route, bool) {
	for _, r := range c.data.Routes {
		if r.Rank == rank {
			return r, true
		}
	}
	return Route{}, false
}

// Characters 返回角色列表（副本）
func (c *Catalog) Characters() []Character {
	chars := make([]Character, len(c.data.Characters))
	copy(chars, c.data.Characters)
	return chars
}
