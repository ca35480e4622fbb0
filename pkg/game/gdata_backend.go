package game

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
)

var _ SaveBackend = (*gdata.Manager)(nil)

// OpenGdataBackend 打开 gdata 跨平台存储
//
// 参数：
//   - appName: 应用名，决定存储目录
//
// 返回：
//   - SaveBackend: 打开失败时为 nil（降级模式，仅内存进度）
//   - error: 打开失败的原因
func OpenGdataBackend(appName string) (SaveBackend, error) {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[ProgressionStore] Warning: gdata unavailable (%v), progression will not persist", err)
		return nil, fmt.Errorf("open gdata storage %s: %w", appName, err)
	}
	return manager, nil
}
