package realtor

import "github.com/realty-ledger/internal/provider"

// Handler 经纪人端接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建经纪人端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
