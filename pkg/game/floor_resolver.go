package game

import (
	"fmt"
	"log"
	"math"
	"strconv"

	"github.com/decker502/dungeonrun/pkg/config"
)

// placeholderFloorPrefix 目录完全为空时生成的层ID前缀
const placeholderFloorPrefix = "placeholder-"

// FloorResolver 集中处理目录缺失时的降级策略
//
// 路线解析顺序：
//  1. 等级定义中的路线
//  2. 默认路线
//  3. 目录中的全部层模板（按声明顺序）
//  4. 合成的占位层ID
//
// 得到的序列会规整为等级层数：过长截断，过短循环补齐。
// 层模板缺失时具体化为占位层，保证挑战永远可渲染。
type FloorResolver struct {
	catalog        config.ContentCatalog
	defaultRouteID string
}

// NewFloorResolver 创建层解析器
func NewFloorResolver(catalog config.ContentCatalog, defaultRouteID string) *FloorResolver {
	if catalog == nil {
		catalog = config.NewCatalog(config.CatalogData{})
	}
	if defaultRouteID == "" {
		defaultRouteID = config.DefaultRouteID
	}
	return &FloorResolver{catalog: catalog, defaultRouteID: defaultRouteID}
}

// ResolveRoute 解析等级的路线与层序列
//
// 返回：
//   - string: 实际使用的路线ID（路线缺失时仍返回等级定义中的ID）
//   - []string: 长度等于 def.Floors 的层模板ID序列
//   - config.Modifiers: 路线修饰符（副本）
func (r *FloorResolver) ResolveRoute(def *RankDefinition) (string, []string, config.Modifiers) {
	routeID := def.RouteID
	route, ok := r.catalog.Route(routeID)
	if !ok && routeID != r.defaultRouteID {
		if route, ok = r.catalog.Route(r.defaultRouteID); ok {
			routeID = route.ID
		}
	}

	ids := route.Floors
	if len(ids) == 0 {
		ids = r.catalog.FloorIDs()
		if len(ids) > 0 {
			log.Printf("[FloorResolver] Route %q has no floors, enumerating %d catalog floors", routeID, len(ids))
		}
	}
	if len(ids) == 0 {
		ids = []string{placeholderFloorPrefix + "1"}
		log.Printf("[FloorResolver] Warning: catalog has no floors, using placeholder sequence for rank %s", def.ID)
	}

	return routeID, normalizeSequence(ids, def.Floors), route.Modifiers.Clone()
}

// normalizeSequence 将序列规整为 n 项
func normalizeSequence(ids []string, n int) []string {
	if n < 1 {
		n = 1
	}
	seq := make([]string, n)
	for i := range seq {
		seq[i] = ids[i%len(ids)]
	}
	return seq
}

// Materialize 具体化挑战序列中第 index 层
func (r *FloorResolver) Materialize(run *RunState, def *RankDefinition, index int) *Room {
	templateID := run.Sequence[index]
	multiplier := run.Modifiers.RewardMultiplier()

	room := &Room{
		FloorIndex:       index,
		FloorNumber:      index + 1,
		TemplateID:       templateID,
		Rooms:            def.RoomsPerFloor,
		RewardMultiplier: multiplier,
	}

	tpl, ok := r.catalog.Floor(templateID)
	if !ok {
		room.Type = "unknown"
		room.Description = fmt.Sprintf("Missing floor: %s", templateID)
		room.Icon = "ICON_FLOOR_MISSING"
		room.Placeholder = true
		return room
	}

	room.Type = tpl.Type
	room.Description = tpl.Description
	room.Icon = tpl.Icon
	room.Branches = append([]config.BranchOption(nil), tpl.Branches...)
	room.Spawns = append([]config.SpawnEntry(nil), tpl.Spawns...)
	room.Rewards = make([]config.RewardEntry, 0, len(tpl.Rewards))
	for _, rw := range tpl.Rewards {
		room.Rewards = append(room.Rewards, config.RewardEntry{
			Item:   rw.Item,
			Amount: int(math.Round(float64(rw.Amount) * multiplier)),
		})
	}
	return room
}

// floorLabel 层号的字符串形式（用于时间线数据）
func floorLabel(n int) string {
	return strconv.Itoa(n)
}
