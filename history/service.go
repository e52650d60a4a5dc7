// Package history 对外提供剪贴板历史的查询、删除、清空与模糊搜索
package history

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"clipwatch/model"
	"clipwatch/notify"
	"clipwatch/search"
	"clipwatch/storage"
)

// ImageRemover 删除历史项关联的图片文件
type ImageRemover interface {
	RemoveImage(path string) error
}

// Result 一条搜索结果
type Result struct {
	Item  *model.ClipboardItem
	Score int
}

// Service 历史查询服务，与监听器共用同一个存储实例
type Service struct {
	storage  storage.Storage
	bus      *notify.Bus
	images   ImageRemover
	logger   *slog.Logger
	maxItems atomic.Int64
}

// NewService 创建历史服务
// images 可以为 nil，此时删除历史项不处理图片文件
func NewService(s storage.Storage, bus *notify.Bus, images ImageRemover, logger *slog.Logger) *Service {
	if bus == nil {
		bus = notify.NewBus()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		storage: s,
		bus:     bus,
		images:  images,
		logger:  logger,
	}
}

// SetMaxItems 设置保留的历史项数量，0 表示不限制
func (s *Service) SetMaxItems(n int) {
	s.maxItems.Store(int64(max(n, 0)))
}

// LoadAll 启动时加载全部历史
func (s *Service) LoadAll(ctx context.Context) ([]*model.ClipboardItem, error) {
	return s.storage.ListAll(ctx)
}

// ListRecent 最近的 limit 条历史
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*model.ClipboardItem, error) {
	return s.storage.ListRecent(ctx, limit)
}

// Get 按ID读取
func (s *Service) Get(ctx context.Context, id int64) (*model.ClipboardItem, error) {
	return s.storage.Get(ctx, id)
}

// Delete 删除历史项并通知，ID不存在时返回 storage.ErrNotFound
func (s *Service) Delete(ctx context.Context, id int64) error {
	item, err := s.storage.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, id); err != nil {
		return err
	}
	s.removeImage(item)

	if err := s.bus.Publish(ctx, notify.Deleted(id)); err != nil {
		s.logger.Warn("发送删除通知失败", "id", id, "error", err)
	}
	return nil
}

// Clear 清空历史
func (s *Service) Clear(ctx context.Context) error {
	items, err := s.storage.ListAll(ctx)
	if err != nil && !errors.Is(err, storage.ErrMalformedRecord) {
		return err
	}
	if err := s.storage.Clear(ctx); err != nil {
		return err
	}
	for _, item := range items {
		s.removeImage(item)
	}

	if err := s.bus.Publish(ctx, notify.Cleared()); err != nil {
		s.logger.Warn("发送清空通知失败", "error", err)
	}
	return nil
}

// Search 按 query 模糊匹配并按得分降序返回
// 空查询返回全部历史，得分为 0
func (s *Service) Search(ctx context.Context, query string) ([]Result, error) {
	items, err := s.storage.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if query == "" {
		results := make([]Result, 0, len(items))
		for _, item := range items {
			results = append(results, Result{Item: item})
		}
		return results, nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = searchText(item)
	}
	hits := search.Rank(texts, query)

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{Item: items[hit.Index], Score: hit.Score})
	}
	return results, nil
}

// searchText 文本项用文本内容，图片项用文件名
func searchText(item *model.ClipboardItem) string {
	switch c := item.Content.(type) {
	case model.Text:
		return c.Value
	case model.Image:
		return filepath.Base(c.Path)
	}
	return ""
}

// Trim 超过保留数量时删除最旧的历史项
func (s *Service) Trim(ctx context.Context) error {
	limit := int(s.maxItems.Load())
	if limit <= 0 {
		return nil
	}
	items, err := s.storage.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(items) <= limit {
		return nil
	}

	for _, item := range items[limit:] {
		if err := s.Delete(ctx, item.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	return nil
}

// AfterCapture 供监听器在写入新项后调用
func (s *Service) AfterCapture(ctx context.Context, _ *model.ClipboardItem) {
	if err := s.Trim(ctx); err != nil {
		s.logger.Error("清理超出数量的历史失败", "error", err)
	}
}

func (s *Service) removeImage(item *model.ClipboardItem) {
	if s.images == nil || item == nil {
		return
	}
	path := item.ImagePath()
	if path == "" {
		return
	}
	if err := s.images.RemoveImage(path); err != nil {
		s.logger.Warn("删除图片文件失败", "path", path, "error", err)
	}
}
