package clipboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"clipwatch/config"
	"clipwatch/model"
	"clipwatch/notify"
	"clipwatch/storage"
)

// DefaultInterval 默认轮询间隔
const DefaultInterval = 500 * time.Millisecond

// Monitor 剪贴板监听器
// 按固定间隔采样 Provider，新内容写入存储后发出通知
type Monitor struct {
	storage   storage.Storage // 存储接口
	provider  Provider        // 剪贴板来源
	processor *Processor      // 图片文件处理
	bus       *notify.Bus     // 变化通知
	logger    *slog.Logger
	now       func() time.Time
	interval  atomic.Int64 // 纳秒
	afterSave func(ctx context.Context, item *model.ClipboardItem)

	tickMu      sync.Mutex // 保护 tracker 与 lastCreated
	tracker     *Tracker
	lastCreated time.Time

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option 监听器选项
type Option func(*Monitor)

// WithInterval 设置轮询间隔
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.SetInterval(d) }
}

// WithPolicy 设置去重策略
func WithPolicy(policy config.DedupPolicy) Option {
	return func(m *Monitor) { m.tracker = NewTracker(policy) }
}

// WithLogger 设置日志器
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) { m.logger = logger }
}

// WithBus 设置通知总线
func WithBus(bus *notify.Bus) Option {
	return func(m *Monitor) { m.bus = bus }
}

// WithClock 设置时间来源
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithAfterSave 每次写入并通知后调用，用于保留数量等后续处理
func WithAfterSave(fn func(ctx context.Context, item *model.ClipboardItem)) Option {
	return func(m *Monitor) { m.afterSave = fn }
}

// NewMonitor 创建剪贴板监听器
func NewMonitor(s storage.Storage, p Provider, processor *Processor, opts ...Option) *Monitor {
	m := &Monitor{
		storage:   s,
		provider:  p,
		processor: processor,
		bus:       notify.NewBus(),
		logger:    slog.Default(),
		now:       time.Now,
		tracker:   NewTracker(config.DedupContent),
	}
	m.interval.Store(int64(DefaultInterval))
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bus 通知总线
func (m *Monitor) Bus() *notify.Bus {
	return m.bus
}

// Interval 当前轮询间隔
func (m *Monitor) Interval() time.Duration {
	return time.Duration(m.interval.Load())
}

// SetInterval 修改轮询间隔，下一次等待开始生效
func (m *Monitor) SetInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultInterval
	}
	m.interval.Store(int64(d))
}

// Start 开始监听剪贴板变化，ctx 结束或调用 Stop 时退出
func (m *Monitor) Start(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.done != nil {
		select {
		case <-m.done:
			// 上一次循环已随 ctx 结束
			m.cancel()
			m.cancel = nil
			m.done = nil
		default:
			return errors.New("监控器已在运行中")
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		m.loop(ctx)
	}()

	m.logger.Info("剪贴板监控已启动", "interval", m.Interval(), "dedup", m.tracker.Policy())
	return nil
}

// Stop 停止监听并等待循环退出
func (m *Monitor) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.done == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
	m.logger.Info("剪贴板监控已停止")
}

// IsRunning 检查监控器是否在运行
func (m *Monitor) IsRunning() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.done == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

// Wait 等待循环退出
func (m *Monitor) Wait() {
	m.runMu.Lock()
	done := m.done
	m.runMu.Unlock()
	if done != nil {
		<-done
	}
}

func (m *Monitor) loop(ctx context.Context) {
	for {
		m.checkClipboard(ctx)

		timer := time.NewTimer(m.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// checkClipboard 执行一次采样，返回本次写入的历史项
// 没有新内容时返回 nil, nil
func (m *Monitor) checkClipboard(ctx context.Context) (*model.ClipboardItem, error) {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	counter, err := m.provider.ChangeCount()
	if err != nil {
		m.logger.Debug("读取剪贴板失败，下次重试", "error", err)
		return nil, err
	}
	if !m.tracker.Changed(counter) {
		return nil, nil
	}

	capture, ok := Classify(m.provider)
	if !ok {
		m.logger.Debug("剪贴板内容不支持，跳过", "counter", counter)
		return nil, nil
	}
	if !m.tracker.IsNew(capture.Content) {
		m.logger.Debug("剪贴板内容与上一条相同，跳过", "counter", counter)
		return nil, nil
	}

	item, err := m.save(ctx, capture)
	if err != nil {
		m.logger.Error("保存剪贴板内容失败", "error", err)
		return nil, err
	}
	m.tracker.Captured(item.Content)
	m.logger.Info("检测到剪贴板变化", "id", item.ID, "type", item.Content.Type())

	if err := m.bus.Publish(ctx, notify.Captured(item)); err != nil {
		m.logger.Warn("发送变化通知失败", "id", item.ID, "error", err)
	}
	if m.afterSave != nil {
		m.afterSave(ctx, item)
	}
	return item, nil
}

// save 图片先落盘再写记录，记录写入失败时删除刚写的图片
func (m *Monitor) save(ctx context.Context, capture Capture) (*model.ClipboardItem, error) {
	content := capture.Content
	if img, ok := content.(model.Image); ok {
		if m.processor == nil {
			return nil, fmt.Errorf("%w: 未配置图片目录", ErrUnsupportedImg)
		}
		path, err := m.processor.SaveImage(capture.Data, capture.Format)
		if err != nil {
			return nil, err
		}
		img.Path = path
		content = img
	}

	item := model.NewClipboardItem(content, m.timestamp())
	id, err := m.storage.Append(ctx, item)
	if err != nil {
		if img, ok := content.(model.Image); ok {
			if rmErr := m.processor.RemoveImage(img.Path); rmErr != nil {
				m.logger.Warn("清理图片文件失败", "path", img.Path, "error", rmErr)
			}
		}
		return nil, err
	}
	item.ID = id
	return item, nil
}

// timestamp 保证同一监听器发出的时间不倒退
func (m *Monitor) timestamp() time.Time {
	now := m.now().UTC()
	if now.Before(m.lastCreated) {
		now = m.lastCreated
	}
	m.lastCreated = now
	return now
}

// SetContent 把历史项写回剪贴板
// 写回的内容记为最近一条，不会被再次记录
func (m *Monitor) SetContent(item *model.ClipboardItem) error {
	if item == nil || item.Content == nil {
		return errors.New("无效的剪贴板项")
	}
	w, ok := m.provider.(Writer)
	if !ok {
		return errors.New("当前剪贴板不支持写入")
	}

	content, err := Restore(w, m.processor, item.Content)
	if err != nil {
		return err
	}

	m.tickMu.Lock()
	m.tracker.Captured(content)
	m.tickMu.Unlock()
	return nil
}

// Restore 把历史内容写回剪贴板，返回带摘要的实际写入内容
func Restore(w Writer, processor *Processor, content model.Content) (model.Content, error) {
	switch c := content.(type) {
	case model.Text:
		if err := w.SetText(c.Value); err != nil {
			return nil, err
		}
		return c, nil
	case model.Image:
		if processor == nil {
			return nil, fmt.Errorf("%w: 未配置图片目录", ErrUnsupportedImg)
		}
		data, err := processor.LoadImage(c.Path)
		if err != nil {
			return nil, err
		}
		if err := w.SetImage(data); err != nil {
			return nil, err
		}
		if cfg, _, err := decodeConfig(data); err == nil {
			c.Digest = imageID(cfg.Width, cfg.Height, data)
		}
		return c, nil
	}
	return nil, errors.New("不支持的内容类型")
}
