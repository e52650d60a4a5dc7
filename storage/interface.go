package storage

import (
	"context"

	"clipwatch/model"
)

// Storage 剪贴板历史存储接口
// 历史项只能追加和删除，没有更新操作
type Storage interface {
	// Append 写入一条历史项，返回存储分配的递增ID
	Append(ctx context.Context, item *model.ClipboardItem) (int64, error)

	// Get 按ID读取，不存在时返回 ErrNotFound
	Get(ctx context.Context, id int64) (*model.ClipboardItem, error)

	// ListAll 按 created_at 降序、id 升序返回全部历史项
	ListAll(ctx context.Context) ([]*model.ClipboardItem, error)

	// ListRecent 与 ListAll 同序，只取前 n 项
	ListRecent(ctx context.Context, n int) ([]*model.ClipboardItem, error)

	// Delete 删除项，不存在时返回 ErrNotFound
	Delete(ctx context.Context, id int64) error

	// Clear 清空全部历史项
	Clear(ctx context.Context) error

	// Count 历史项数量
	Count(ctx context.Context) (int64, error)

	// 关闭存储
	Close() error
}
