package app

import (
	"context"
	"errors"

	"github.com/realty-ledger/internal/notify"
)

// DispatcherService 通知分发器的生命周期封装
type DispatcherService struct {
	dispatcher *notify.Dispatcher
}

// NewDispatcherService 创建通知分发服务
func NewDispatcherService(dispatcher *notify.Dispatcher) *DispatcherService {
	return &DispatcherService{dispatcher: dispatcher}
}

// Name 服务名称
func (s *DispatcherService) Name() string {
	return "notify-dispatcher"
}

// Start 启动投递协程并阻塞到 ctx 结束
func (s *DispatcherService) Start(ctx context.Context) error {
	if s == nil || s.dispatcher == nil {
		return errors.New("notification dispatcher not initialized")
	}
	s.dispatcher.Start()
	<-ctx.Done()
	return nil
}

// Stop 在期限内投递剩余通知
func (s *DispatcherService) Stop(ctx context.Context) error {
	if s == nil || s.dispatcher == nil {
		return nil
	}
	return s.dispatcher.Stop(ctx)
}
