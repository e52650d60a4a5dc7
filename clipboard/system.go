package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// SystemProvider 原生剪贴板，支持文本和图片
// ChangeCount 读取一次剪贴板并缓存，Text/Image 返回同一次读取的结果
type SystemProvider struct {
	mu    sync.Mutex
	gen   generation
	text  []byte
	image []byte
}

// NewSystemProvider 初始化原生剪贴板
func NewSystemProvider() (*SystemProvider, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	return &SystemProvider{}, nil
}

// ChangeCount 读取文本和图片，内容摘要变化时计数加一
func (p *SystemProvider) ChangeCount() (int64, error) {
	text := clipboard.Read(clipboard.FmtText)
	image := clipboard.Read(clipboard.FmtImage)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.text, p.image = text, image
	return p.gen.observe(text, image), nil
}

// Text 上一次 ChangeCount 读到的文本
func (p *SystemProvider) Text() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.text) == 0 {
		return "", false
	}
	return string(p.text), true
}

// Image 上一次 ChangeCount 读到的图片
func (p *SystemProvider) Image() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.image) == 0 {
		return nil, false
	}
	return p.image, true
}

// SetText 写入文本
func (p *SystemProvider) SetText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// SetImage 写入 PNG 图片
func (p *SystemProvider) SetImage(data []byte) error {
	if len(data) == 0 {
		return ErrNoImageData
	}
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}
