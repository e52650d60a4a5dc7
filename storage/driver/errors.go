package driver

import (
	"errors"
	"fmt"
)

// 预定义错误变量，storage 包会重新导出
var (
	ErrPersistence     = errors.New("存储读写失败")
	ErrNotFound        = errors.New("记录不存在")
	ErrMalformedRecord = errors.New("记录格式错误")
	ErrEmptyContent    = errors.New("剪贴板项内容为空")
)

// persistErr 包装底层错误，同时保留 ErrPersistence 和原始错误
func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
