package storage

import "clipwatch/storage/driver"

// 存储层错误，用 errors.Is 判断
var (
	ErrPersistence     = driver.ErrPersistence
	ErrNotFound        = driver.ErrNotFound
	ErrMalformedRecord = driver.ErrMalformedRecord
	ErrEmptyContent    = driver.ErrEmptyContent
)
