package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"clipwatch/config"
	"clipwatch/model"
)

// jsonFile history.json 的内容
type jsonFile struct {
	NextID  int64    `json:"nextId"`
	Records []record `json:"records"`
}

// JSONStorage JSON文件存储实现
// 每次操作都完整读写一次文件，适合小规模历史
type JSONStorage struct {
	mu       sync.Mutex
	filePath string
}

// NewJSONStorage 创建JSON存储实例
func NewJSONStorage(cfg *config.StorageConfig) (*JSONStorage, error) {
	// 确保存储目录存在
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}

	s := &JSONStorage{filePath: filepath.Join(cfg.Path, "history.json")}
	// 启动时读一次，文件损坏直接报错
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStorage) load() (*jsonFile, error) {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return &jsonFile{NextID: 1}, nil
	}
	if err != nil {
		return nil, persistErr("读取历史文件", err)
	}

	var f jsonFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, persistErr("解析历史文件", err)
	}
	if f.NextID <= 0 {
		f.NextID = 1
	}
	return &f, nil
}

func (s *JSONStorage) save(f *jsonFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return persistErr("序列化历史文件", err)
	}

	// 先写临时文件再替换，避免写一半
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return persistErr("写入历史文件", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return persistErr("替换历史文件", err)
	}
	return nil
}

// Append 添加新项
func (s *JSONStorage) Append(_ context.Context, item *model.ClipboardItem) (int64, error) {
	rec, err := toRecord(item)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return 0, err
	}
	rec.ID = f.NextID
	f.NextID++
	f.Records = append(f.Records, rec)

	if err := s.save(f); err != nil {
		return 0, err
	}
	return rec.ID, nil
}

// Get 按ID读取
func (s *JSONStorage) Get(_ context.Context, id int64) (*model.ClipboardItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, rec := range f.Records {
		if rec.ID == id {
			return rec.toItem()
		}
	}
	return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
}

// ListAll 加载所有历史项
func (s *JSONStorage) ListAll(_ context.Context) ([]*model.ClipboardItem, error) {
	return s.list(-1)
}

// ListRecent 加载最近的 n 项
func (s *JSONStorage) ListRecent(_ context.Context, n int) ([]*model.ClipboardItem, error) {
	if n <= 0 {
		return []*model.ClipboardItem{}, nil
	}
	return s.list(n)
}

func (s *JSONStorage) list(limit int) ([]*model.ClipboardItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}

	records := f.Records
	// 排序：按时间降序，同一时间按插入顺序
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Created != records[j].Created {
			return records[i].Created > records[j].Created
		}
		return records[i].ID < records[j].ID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return toItems(records)
}

// Delete 删除项
func (s *JSONStorage) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	for i, rec := range f.Records {
		if rec.ID == id {
			f.Records = append(f.Records[:i], f.Records[i+1:]...)
			return s.save(f)
		}
	}
	return fmt.Errorf("%w: id=%d", ErrNotFound, id)
}

// Clear 清空所有项，ID 计数不回退
func (s *JSONStorage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	f.Records = nil
	return s.save(f)
}

// Count 历史项数量
func (s *JSONStorage) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return 0, err
	}
	return int64(len(f.Records)), nil
}

// Close 关闭存储
func (s *JSONStorage) Close() error {
	return nil
}
