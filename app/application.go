package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"clipwatch/clipboard"
	"clipwatch/config"
	"clipwatch/history"
	"clipwatch/logging"
	"clipwatch/model"
	"clipwatch/notify"
	"clipwatch/storage"
)

// Application 应用程序核心
// 存储只打开一次，监听器和历史服务共用
type Application struct {
	configPath string
	config     *config.AppConfig
	logger     *slog.Logger
	storage    storage.Storage
	processor  *clipboard.Processor
	bus        *notify.Bus
	history    *history.Service
}

// New 创建应用实例，存储打开失败直接返回错误
func New(configPath string) (*Application, error) {
	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	// 创建存储
	store, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("打开历史存储失败: %w", err)
	}

	processor, err := clipboard.NewProcessor(cfg.Storage.ImageDir)
	if err != nil {
		store.Close()
		return nil, err
	}

	bus := notify.NewBus()
	svc := history.NewService(store, bus, processor, logger)
	svc.SetMaxItems(cfg.Storage.MaxItems)

	return &Application{
		configPath: configPath,
		config:     cfg,
		logger:     logger,
		storage:    store,
		processor:  processor,
		bus:        bus,
		history:    svc,
	}, nil
}

// History 历史查询服务
func (a *Application) History() *history.Service {
	return a.history
}

// Processor 图片处理器
func (a *Application) Processor() *clipboard.Processor {
	return a.processor
}

// Config 当前配置
func (a *Application) Config() *config.AppConfig {
	return a.config
}

// Watch 监听剪贴板直到 ctx 结束
func (a *Application) Watch(ctx context.Context) error {
	provider, err := clipboard.NewProvider(a.logger)
	if err != nil {
		return err
	}

	monitor := clipboard.NewMonitor(a.storage, provider, a.processor,
		clipboard.WithInterval(a.config.Monitor.Interval()),
		clipboard.WithPolicy(a.config.Monitor.Dedup),
		clipboard.WithLogger(a.logger),
		clipboard.WithBus(a.bus),
		clipboard.WithAfterSave(a.history.AfterCapture),
	)

	events, cancel := a.bus.Subscribe(64)
	defer cancel()
	go a.logEvents(events)

	// 配置热更新只调整轮询间隔和保留数量
	if err := config.Watch(ctx, a.configPath, a.logger, func(cfg *config.AppConfig) {
		monitor.SetInterval(cfg.Monitor.Interval())
		a.history.SetMaxItems(cfg.Storage.MaxItems)
	}); err != nil {
		a.logger.Warn("无法监听配置文件变化", "error", err)
	}

	if err := monitor.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	monitor.Stop()
	return nil
}

// logEvents 没有界面时把通知写入日志
func (a *Application) logEvents(events <-chan notify.Event) {
	for e := range events {
		switch e.Kind {
		case notify.EntryCaptured:
			a.logger.Debug("新历史项", "id", e.ID, "type", e.Item.Content.Type())
		case notify.EntryDeleted:
			a.logger.Debug("历史项已删除", "id", e.ID)
		case notify.HistoryCleared:
			a.logger.Debug("历史已清空")
		}
	}
}

// Copy 把历史项写回剪贴板
// 在另一个进程中运行的 watch 会把写回的内容记为一条新的历史
func (a *Application) Copy(ctx context.Context, id int64) error {
	item, err := a.history.Get(ctx, id)
	if err != nil {
		return err
	}
	provider, err := clipboard.NewProvider(a.logger)
	if err != nil {
		return err
	}
	w, ok := provider.(clipboard.Writer)
	if !ok {
		return errors.New("当前剪贴板不支持写入")
	}
	_, err = clipboard.Restore(w, a.processor, item.Content)
	return err
}

// Open 用系统默认程序打开图片历史项
func (a *Application) Open(ctx context.Context, id int64) error {
	item, err := a.history.Get(ctx, id)
	if err != nil {
		return err
	}
	img, ok := item.Content.(model.Image)
	if !ok {
		return errors.New("只能打开图片历史项")
	}
	return a.processor.OpenImage(img.Path)
}

// Close 关闭存储
func (a *Application) Close() error {
	return a.storage.Close()
}
