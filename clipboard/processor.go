package clipboard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/skratchdot/open-golang/open"
)

// 预定义错误变量
var (
	ErrNoImageData    = errors.New("剪贴板中没有图片数据")
	ErrUnsupportedImg = errors.New("不支持的图片格式")
	ErrFileNotFound   = errors.New("图片文件不存在")
)

// Processor 图片文件处理器
type Processor struct {
	imageDir string // 图片存储目录（绝对路径）
}

// NewProcessor 创建图片处理器，确保目录存在
func NewProcessor(imageDir string) (*Processor, error) {
	abs, err := filepath.Abs(imageDir)
	if err != nil {
		return nil, fmt.Errorf("获取图片目录绝对路径失败: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("创建图片目录失败: %w", err)
	}
	return &Processor{imageDir: abs}, nil
}

// ImageDir 图片存储目录
func (p *Processor) ImageDir() string {
	return p.imageDir
}

// SaveImage 把图片原始数据写入文件，返回绝对路径
func (p *Processor) SaveImage(data []byte, format string) (string, error) {
	if len(data) == 0 {
		return "", ErrNoImageData
	}
	switch format {
	case "png", "jpeg", "gif":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImg, format)
	}

	filePath := filepath.Join(p.imageDir, fmt.Sprintf("clip_%s.%s", uuid.NewString(), format))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("写入图片文件失败: %w", err)
	}
	return filePath, nil
}

// LoadImage 读取图片文件
func (p *Processor) LoadImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("读取图片失败（路径：%s）: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoImageData, path)
	}
	return data, nil
}

// RemoveImage 删除图片文件，文件不存在视为成功
// 只删除图片目录内的文件
func (p *Processor) RemoveImage(path string) error {
	rel, err := filepath.Rel(p.imageDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("拒绝删除图片目录以外的文件: %s", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除图片文件失败: %w", err)
	}
	return nil
}

// OpenImage 用系统默认程序打开图片
func (p *Processor) OpenImage(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return open.Start(path)
}
