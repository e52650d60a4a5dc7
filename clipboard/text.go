package clipboard

import (
	"fmt"
	"runtime"
	"sync"

	atotto "github.com/atotto/clipboard"
)

// TextProvider 纯文本剪贴板，原生剪贴板不可用时使用
type TextProvider struct {
	mu   sync.Mutex
	gen  generation
	text string
}

// NewTextProvider 检查当前平台是否支持纯文本剪贴板
func NewTextProvider() (*TextProvider, error) {
	if atotto.Unsupported {
		return nil, fmt.Errorf("%w: 平台 %s 不支持", ErrProviderUnavailable, runtime.GOOS)
	}
	return &TextProvider{}, nil
}

func (p *TextProvider) ChangeCount() (int64, error) {
	text, err := atotto.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = text
	return p.gen.observe([]byte(text)), nil
}

func (p *TextProvider) Text() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text, p.text != ""
}

// Image 纯文本剪贴板没有图片
func (p *TextProvider) Image() ([]byte, bool) {
	return nil, false
}

func (p *TextProvider) SetText(text string) error {
	return atotto.WriteAll(text)
}

func (p *TextProvider) SetImage([]byte) error {
	return ErrUnsupportedImg
}
