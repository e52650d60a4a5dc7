package storage

import (
	"fmt"

	"clipwatch/config"
	"clipwatch/storage/driver"
)

var (
	_ Storage = (*driver.GormStorage)(nil)
	_ Storage = (*driver.JSONStorage)(nil)
)

// NewStorage 根据配置创建存储实例
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case config.StorageTypeSQLite, "":
		return driver.NewSQLiteStorage(cfg)
	case config.StorageTypeMySQL:
		return driver.NewMySQLStorage(cfg)
	case config.StorageTypeJSON:
		return driver.NewJSONStorage(cfg)
	default:
		return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Type)
	}
}
