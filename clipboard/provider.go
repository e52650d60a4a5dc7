package clipboard

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
)

// ErrProviderUnavailable 剪贴板暂时无法读取，本轮跳过
var ErrProviderUnavailable = errors.New("剪贴板不可用")

// Provider 系统剪贴板的最小读取接口
// ChangeCount 的返回值相同表示系统剪贴板没有变化；
// 不同只说明发生过一次变化，内容不一定不同
type Provider interface {
	ChangeCount() (int64, error)
	Text() (string, bool)
	Image() ([]byte, bool)
}

// Writer 可写回剪贴板的 Provider
type Writer interface {
	SetText(text string) error
	SetImage(data []byte) error
}

// NewProvider 优先使用原生剪贴板，初始化失败时退回纯文本剪贴板
func NewProvider(logger *slog.Logger) (Provider, error) {
	sys, err := NewSystemProvider()
	if err == nil {
		return sys, nil
	}
	logger.Warn("原生剪贴板初始化失败，改用纯文本剪贴板", "error", err)

	text, textErr := NewTextProvider()
	if textErr != nil {
		return nil, fmt.Errorf("剪贴板初始化失败: %w", errors.Join(err, textErr))
	}
	return text, nil
}

// generation 没有系统变化计数时，用内容摘要模拟计数：摘要变化一次计数加一
type generation struct {
	digest string
	count  int64
}

func (g *generation) observe(parts ...[]byte) int64 {
	if d := digest(parts...); d != g.digest {
		g.digest = d
		g.count++
	}
	return g.count
}

// digest 多段数据的 MD5，段之间带长度前缀
func digest(parts ...[]byte) string {
	h := md5.New()
	var size [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(size[:], uint64(len(p)))
		h.Write(size[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
