// Package notify 把历史变化按发生顺序通知给订阅者
package notify

import (
	"context"
	"sync"

	"clipwatch/model"
)

// Kind 通知类型
type Kind string

const (
	EntryCaptured  Kind = "entry-captured"
	EntryDeleted   Kind = "entry-deleted"
	HistoryCleared Kind = "history-cleared"
)

// Event 一条通知
// EntryCaptured 携带 Item，EntryDeleted 携带 ID
type Event struct {
	Kind Kind
	Item *model.ClipboardItem
	ID   int64
}

// Captured 新历史项已写入
func Captured(item *model.ClipboardItem) Event {
	return Event{Kind: EntryCaptured, Item: item, ID: item.ID}
}

// Deleted 历史项已删除
func Deleted(id int64) Event {
	return Event{Kind: EntryDeleted, ID: id}
}

// Cleared 历史已清空
func Cleared() Event {
	return Event{Kind: HistoryCleared}
}

// Bus 同步广播，发布按调用顺序串行执行
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscription
}

type subscription struct {
	ch   chan Event
	done chan struct{} // 取消时先关闭，正在阻塞的发布随即放弃该订阅者
}

// NewBus 创建通知总线
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscription)}
}

// Subscribe 订阅通知，返回接收通道和取消函数
// 订阅者需要持续读取或取消订阅，否则发布方会阻塞直到 ctx 结束
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	sub := &subscription{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
	b.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(sub.done)
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish 依次投递给所有订阅者，已取消的订阅者直接跳过
// ctx 结束时放弃尚未投递的订阅者并返回 ctx 的错误
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		select {
		case <-sub.done:
			continue
		default:
		}
		select {
		case sub.ch <- e:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
