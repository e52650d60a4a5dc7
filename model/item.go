package model

import (
	"fmt"
	"time"
)

// ContentType 剪贴板内容类型，持久化时写入 content_type 列
type ContentType string

const (
	TypeText  ContentType = "text"  // 文本类型
	TypeImage ContentType = "image" // 图片类型
)

// TimeLayout created_at 的存储格式：固定宽度的 UTC 时间，字符串顺序即时间顺序
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// Content 剪贴板内容，只有 Text 和 Image 两种实现
type Content interface {
	Type() ContentType
	Equal(other Content) bool
	content()
}

// Text 文本内容
type Text struct {
	Value string
}

func (Text) Type() ContentType { return TypeText }

func (t Text) Equal(other Content) bool {
	o, ok := other.(Text)
	return ok && o.Value == t.Value
}

func (Text) content() {}

// Image 图片内容
// Digest 只在内存中用于去重，不落库
type Image struct {
	Path   string
	Digest string
}

func (Image) Type() ContentType { return TypeImage }

// Equal 两边都有摘要时按摘要比较，否则按路径比较
func (i Image) Equal(other Content) bool {
	o, ok := other.(Image)
	if !ok {
		return false
	}
	if i.Digest != "" && o.Digest != "" {
		return i.Digest == o.Digest
	}
	return i.Path == o.Path
}

func (Image) content() {}

// ClipboardItem 表示一个剪贴板历史项
// ID 为 0 表示尚未持久化
type ClipboardItem struct {
	ID        int64
	Content   Content
	CreatedAt time.Time
}

// NewClipboardItem 创建新的剪贴板历史项
func NewClipboardItem(content Content, createdAt time.Time) *ClipboardItem {
	return &ClipboardItem{
		Content:   content,
		CreatedAt: createdAt,
	}
}

// Text 返回文本内容，非文本项返回空串
func (c *ClipboardItem) Text() string {
	if t, ok := c.Content.(Text); ok {
		return t.Value
	}
	return ""
}

// ImagePath 返回图片路径，非图片项返回空串
func (c *ClipboardItem) ImagePath() string {
	if img, ok := c.Content.(Image); ok {
		return img.Path
	}
	return ""
}

func (c *ClipboardItem) String() string {
	if c.Content == nil {
		return fmt.Sprintf("#%d <empty>", c.ID)
	}
	return fmt.Sprintf("#%d %s %s", c.ID, c.Content.Type(), c.CreatedAt.UTC().Format(TimeLayout))
}

// FormatTime 按存储格式输出时间
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime 解析存储格式的时间
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}
