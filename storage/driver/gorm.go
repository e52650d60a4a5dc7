package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clipwatch/config"
	"clipwatch/model"
)

// GormStorage SQL 存储实现（使用GORM），支持 SQLite 与 MySQL
// 所有操作都在同一把锁下串行执行
type GormStorage struct {
	mu sync.Mutex
	db *gorm.DB
}

// NewSQLiteStorage 创建 SQLite 存储实例
func NewSQLiteStorage(cfg *config.StorageConfig) (*GormStorage, error) {
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("无法打开SQLite数据库: %w", err)
	}
	return newGormStorage(db)
}

// NewMySQLStorage 创建MySQL存储实例
func NewMySQLStorage(cfg *config.StorageConfig) (*GormStorage, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN()), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("无法连接到MySQL数据库: %w", err)
	}
	return newGormStorage(db)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
}

func newGormStorage(db *gorm.DB) (*GormStorage, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库连接失败: %w", err)
	}
	// 只使用一个逻辑连接
	sqlDB.SetMaxOpenConns(1)

	// 自动迁移表结构
	if err := db.AutoMigrate(&record{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("迁移表结构失败: %w", err)
	}

	return &GormStorage{db: db}, nil
}

// Append 插入一条历史项，返回新分配的ID
func (s *GormStorage) Append(ctx context.Context, item *model.ClipboardItem) (int64, error) {
	rec, err := toRecord(item)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return 0, persistErr("插入记录", err)
	}
	return rec.ID, nil
}

// Get 按ID读取一条历史项
func (s *GormStorage) Get(ctx context.Context, id int64) (*model.ClipboardItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec record
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	if err != nil {
		return nil, persistErr("查询记录", err)
	}
	return rec.toItem()
}

// ListAll 按 created_at 降序、id 升序返回全部历史项
func (s *GormStorage) ListAll(ctx context.Context) ([]*model.ClipboardItem, error) {
	return s.list(ctx, -1)
}

// ListRecent 返回最近的 n 条历史项
func (s *GormStorage) ListRecent(ctx context.Context, n int) ([]*model.ClipboardItem, error) {
	if n <= 0 {
		return []*model.ClipboardItem{}, nil
	}
	return s.list(ctx, n)
}

func (s *GormStorage) list(ctx context.Context, limit int) ([]*model.ClipboardItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []record
	query := s.db.WithContext(ctx).Order("created_at DESC").Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, persistErr("查询记录", err)
	}
	return toItems(records)
}

// Delete 删除一条历史项，ID不存在时返回 ErrNotFound
func (s *GormStorage) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&record{})
	if result.Error != nil {
		return persistErr("删除记录", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	return nil
}

// Clear 清空全部历史项
func (s *GormStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&record{}).Error; err != nil {
		return persistErr("清空记录", err)
	}
	return nil
}

// Count 返回历史项总数
func (s *GormStorage) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if err := s.db.WithContext(ctx).Model(&record{}).Count(&n).Error; err != nil {
		return 0, persistErr("统计记录", err)
	}
	return n, nil
}

// Close 关闭存储
func (s *GormStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 获取底层sql.DB并关闭
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
