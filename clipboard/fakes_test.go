package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"clipwatch/model"
	"clipwatch/storage"
)

// fakeProvider 可控的剪贴板
type fakeProvider struct {
	mu      sync.Mutex
	counter int64
	text    string
	image   []byte
	err     error
	written []string
}

func (p *fakeProvider) set(text string, img []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counter++
	p.text = text
	p.image = img
}

// bump 只推进计数，内容不变
func (p *fakeProvider) bump() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counter++
}

func (p *fakeProvider) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *fakeProvider) ChangeCount() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	return p.counter, nil
}

func (p *fakeProvider) Text() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text, p.text != ""
}

func (p *fakeProvider) Image() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.image, len(p.image) > 0
}

func (p *fakeProvider) SetText(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written = append(p.written, text)
	p.counter++
	p.text = text
	p.image = nil
	return nil
}

func (p *fakeProvider) SetImage(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counter++
	p.text = ""
	p.image = data
	return nil
}

// memStore 内存存储，appendErr 非空时写入失败
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	items     []*model.ClipboardItem
	appendErr error
	appends   int
}

var _ storage.Storage = (*memStore)(nil)

func (s *memStore) failAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

func (s *memStore) Append(_ context.Context, item *model.ClipboardItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends++
	if s.appendErr != nil {
		return 0, fmt.Errorf("%w: %w", storage.ErrPersistence, s.appendErr)
	}
	s.nextID++
	stored := *item
	stored.ID = s.nextID
	s.items = append(s.items, &stored)
	return s.nextID, nil
}

func (s *memStore) Get(_ context.Context, id int64) (*model.ClipboardItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *memStore) ListAll(_ context.Context) ([]*model.ClipboardItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]*model.ClipboardItem(nil), s.items...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memStore) ListRecent(ctx context.Context, n int) ([]*model.ClipboardItem, error) {
	all, _ := s.ListAll(ctx)
	if n < len(all) {
		all = all[:max(n, 0)]
	}
	return all, nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return nil
}

func (s *memStore) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.items)), nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

var errDiskFull = errors.New("disk full")

// pngBytes 生成一张纯色 PNG
func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
