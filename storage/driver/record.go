package driver

import (
	"fmt"

	"clipwatch/model"
)

// tableName 与历史版本保持一致的表名
const tableName = "clipboard_history"

// record 表中的一行
// text_content 与 image_path 按 content_type 二选一
type record struct {
	ID          int64   `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	ContentType string  `json:"content_type" gorm:"column:content_type;type:varchar(16);not null"`
	TextContent *string `json:"text_content,omitempty" gorm:"column:text_content;type:text"`
	ImagePath   *string `json:"image_path,omitempty" gorm:"column:image_path;type:text"`
	Created     string  `json:"created_at" gorm:"column:created_at;type:varchar(32);not null;index:idx_created_at,sort:desc"`
}

func (record) TableName() string {
	return tableName
}

// toRecord 把历史项转换为一行，ID 由存储分配
func toRecord(item *model.ClipboardItem) (record, error) {
	if item == nil || item.Content == nil {
		return record{}, ErrEmptyContent
	}

	rec := record{Created: model.FormatTime(item.CreatedAt)}
	switch c := item.Content.(type) {
	case model.Text:
		text := c.Value
		rec.ContentType = string(model.TypeText)
		rec.TextContent = &text
	case model.Image:
		if c.Path == "" {
			return record{}, fmt.Errorf("%w: 图片路径为空", ErrEmptyContent)
		}
		path := c.Path
		rec.ContentType = string(model.TypeImage)
		rec.ImagePath = &path
	default:
		return record{}, fmt.Errorf("%w: 不支持的内容类型 %T", ErrEmptyContent, item.Content)
	}
	return rec, nil
}

// toItem 把一行还原为历史项，字段组合不合法时返回 ErrMalformedRecord
func (r record) toItem() (*model.ClipboardItem, error) {
	createdAt, err := model.ParseTime(r.Created)
	if err != nil {
		return nil, fmt.Errorf("%w: id=%d created_at=%q", ErrMalformedRecord, r.ID, r.Created)
	}

	var content model.Content
	switch model.ContentType(r.ContentType) {
	case model.TypeText:
		if r.TextContent == nil || r.ImagePath != nil {
			return nil, fmt.Errorf("%w: id=%d 文本记录字段不完整", ErrMalformedRecord, r.ID)
		}
		content = model.Text{Value: *r.TextContent}
	case model.TypeImage:
		if r.ImagePath == nil || r.TextContent != nil {
			return nil, fmt.Errorf("%w: id=%d 图片记录字段不完整", ErrMalformedRecord, r.ID)
		}
		content = model.Image{Path: *r.ImagePath}
	default:
		return nil, fmt.Errorf("%w: id=%d content_type=%q", ErrMalformedRecord, r.ID, r.ContentType)
	}

	return &model.ClipboardItem{
		ID:        r.ID,
		Content:   content,
		CreatedAt: createdAt,
	}, nil
}

// toItems 任意一行解析失败则整体失败
func toItems(records []record) ([]*model.ClipboardItem, error) {
	items := make([]*model.ClipboardItem, 0, len(records))
	for _, r := range records {
		item, err := r.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
