package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/realty-ledger/internal/logger"
)

const (
	defaultBufferSize     = 256
	defaultWorkers        = 1
	defaultMaxAttempts    = 3
	defaultBaseBackoff    = 200 * time.Millisecond
	defaultAttemptTimeout = 3 * time.Second
	defaultDrainTimeout   = 5 * time.Second
)

// Options 通知分发参数
type Options struct {
	BufferSize     int
	Workers        int
	MaxAttempts    int
	BaseBackoff    time.Duration
	AttemptTimeout time.Duration
	DrainTimeout   time.Duration
}

func (o Options) normalize() Options {
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.BaseBackoff < 0 {
		o.BaseBackoff = 0
	} else if o.BaseBackoff == 0 {
		o.BaseBackoff = defaultBaseBackoff
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = defaultAttemptTimeout
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = defaultDrainTimeout
	}
	return o
}

// Dispatcher 通知出站通道：账本事务提交后投递事件，由后台协程负责重试与失败兜底
type Dispatcher struct {
	emitter Emitter
	opts    Options
	queue   chan Event

	mu      sync.RWMutex
	started bool
	closed  bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	runCtx    context.Context
	runCancel context.CancelFunc
}

// NewDispatcher 创建通知分发器
func NewDispatcher(emitter Emitter, opts Options) *Dispatcher {
	opts = opts.normalize()
	runCtx, runCancel := context.WithCancel(context.Background())
	return &Dispatcher{
		emitter:   emitter,
		opts:      opts,
		queue:     make(chan Event, opts.BufferSize),
		stopCh:    make(chan struct{}),
		runCtx:    runCtx,
		runCancel: runCancel,
	}
}

// Start 启动后台投递协程，重复调用无副作用
func (d *Dispatcher) Start() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.loop()
	}
}

// Dispatch 非阻塞入队，通道已满或已关闭时丢弃并记录日志
func (d *Dispatcher) Dispatch(event Event) {
	if d == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		logger.Named("notify").Warnw("notification_dispatch_dropped_closed", "realtor_id", event.RealtorID, "kind", event.Kind)
		return
	}
	select {
	case d.queue <- event:
	default:
		logger.Named("notify").Warnw("notification_dispatch_dropped_full",
			"realtor_id", event.RealtorID,
			"kind", event.Kind,
			"buffer_size", d.opts.BufferSize,
		)
	}
}

// Pending 当前排队中的事件数量
func (d *Dispatcher) Pending() int {
	if d == nil {
		return 0
	}
	return len(d.queue)
}

// Stop 停止接收新事件并在期限内投递剩余事件
func (d *Dispatcher) Stop(ctx context.Context) error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	started := d.started
	close(d.stopCh)
	d.mu.Unlock()

	if !started {
		d.runCancel()
		if n := len(d.queue); n > 0 {
			logger.Named("notify").Warnw("notification_dispatch_discarded_not_started", "count", n)
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(d.opts.DrainTimeout)
	defer timer.Stop()
	var ctxDone <-chan struct{}
	if ctx != nil {
		ctxDone = ctx.Done()
	}
	select {
	case <-done:
		d.runCancel()
		return nil
	case <-timer.C:
	case <-ctxDone:
	}
	d.runCancel()
	<-done
	return errors.New("notification dispatcher drain deadline exceeded")
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stopCh:
			for {
				select {
				case event := <-d.queue:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(event Event) {
	if d.emitter == nil {
		logger.Named("notify").Debugw("notification_dispatch_skip_no_emitter", "realtor_id", event.RealtorID, "kind", event.Kind)
		return
	}
	var lastErr error
	for attempt := 0; attempt < d.opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := fullJitter(exponentialBackoff(d.opts.BaseBackoff, attempt-1))
			if !d.sleep(wait) {
				break
			}
		}
		lastErr = d.emitOnce(event)
		if lastErr == nil {
			return
		}
		logger.Named("notify").Debugw("notification_emit_attempt_failed",
			"realtor_id", event.RealtorID,
			"kind", event.Kind,
			"attempt", attempt+1,
			"error", lastErr,
		)
		if d.runCtx.Err() != nil {
			break
		}
	}
	logger.Named("notify").Warnw("notification_dispatch_failed",
		"realtor_id", event.RealtorID,
		"kind", event.Kind,
		"error", lastErr,
	)
}

func (d *Dispatcher) emitOnce(event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notification emitter panic: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(d.runCtx, d.opts.AttemptTimeout)
	defer cancel()
	return d.emitter.Emit(ctx, event)
}

func (d *Dispatcher) sleep(wait time.Duration) bool {
	if wait <= 0 {
		return d.runCtx.Err() == nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-d.runCtx.Done():
		return false
	}
}
