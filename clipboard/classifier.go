package clipboard

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"clipwatch/model"
)

// Capture 一次分类得到的候选内容
type Capture struct {
	Content model.Content
	Data    []byte // 图片原始数据，文本为空
	Format  string // 图片格式：png/jpeg/gif
}

// Classify 判断剪贴板当前内容
// 先取文本，没有文本再取图片，都没有或格式不支持时返回 false
func Classify(p Provider) (Capture, bool) {
	if text, ok := p.Text(); ok && text != "" {
		return Capture{Content: model.Text{Value: text}}, true
	}

	data, ok := p.Image()
	if !ok || len(data) == 0 {
		return Capture{}, false
	}
	cfg, format, err := decodeConfig(data)
	if err != nil {
		return Capture{}, false
	}
	return Capture{
		Content: model.Image{Digest: imageID(cfg.Width, cfg.Height, data)},
		Data:    data,
		Format:  format,
	}, true
}

// imageID 内容哈希加尺寸，相同图片得到相同标识
func imageID(width, height int, data []byte) string {
	return fmt.Sprintf("%s_%d_%d", digest(data), width, height)
}

func decodeConfig(data []byte) (image.Config, string, error) {
	return image.DecodeConfig(bytes.NewReader(data))
}
