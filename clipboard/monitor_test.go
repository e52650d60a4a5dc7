package clipboard

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipwatch/config"
	"clipwatch/logging"
	"clipwatch/model"
	"clipwatch/notify"
	"clipwatch/storage"
)

func newTestMonitor(t *testing.T, opts ...Option) (*Monitor, *fakeProvider, *memStore) {
	t.Helper()
	processor, err := NewProcessor(filepath.Join(t.TempDir(), "images"))
	require.NoError(t, err)

	p := &fakeProvider{}
	s := &memStore{}
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	return NewMonitor(s, p, processor, opts...), p, s
}

func TestMonitorSameCounterDoesNothing(t *testing.T) {
	m, p, s := newTestMonitor(t)
	ctx := context.Background()

	p.set("first", nil)
	item, err := m.checkClipboard(ctx)
	require.NoError(t, err)
	require.NotNil(t, item)

	// 内容变了但计数没变，不做任何处理
	p.mu.Lock()
	p.text = "sneaky"
	p.mu.Unlock()
	item, err = m.checkClipboard(ctx)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.Equal(t, 1, s.appends)
}

func TestMonitorDedupIdenticalContent(t *testing.T) {
	m, p, s := newTestMonitor(t)
	ctx := context.Background()

	p.set("same text", nil)
	_, err := m.checkClipboard(ctx)
	require.NoError(t, err)

	p.bump()
	item, err := m.checkClipboard(ctx)
	require.NoError(t, err)
	assert.Nil(t, item)

	p.set("same text", nil)
	_, err = m.checkClipboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, s.len())
	assert.Equal(t, 1, s.appends)
}

func TestMonitorCounterPolicyRecordsEveryChange(t *testing.T) {
	m, p, s := newTestMonitor(t, WithPolicy(config.DedupCounter))
	ctx := context.Background()

	p.set("same text", nil)
	_, err := m.checkClipboard(ctx)
	require.NoError(t, err)
	p.bump()
	_, err = m.checkClipboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, s.len())
}

func TestMonitorCapturesAndNotifiesInOrder(t *testing.T) {
	m, p, s := newTestMonitor(t)
	events, cancel := m.Bus().Subscribe(8)
	defer cancel()
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		p.set(text, nil)
		item, err := m.checkClipboard(ctx)
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.NotZero(t, item.ID)
	}
	assert.Equal(t, 3, s.len())

	for i, want := range []string{"one", "two", "three"} {
		e := <-events
		assert.Equal(t, notify.EntryCaptured, e.Kind)
		assert.Equal(t, want, e.Item.Text())
		assert.EqualValues(t, i+1, e.ID)
	}
}

func TestMonitorSkipsUnsupportedContent(t *testing.T) {
	m, p, s := newTestMonitor(t)
	p.set("", []byte("garbage"))

	item, err := m.checkClipboard(context.Background())
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.Zero(t, s.appends)
}

func TestMonitorPersistenceFailureIsNotFatal(t *testing.T) {
	m, p, s := newTestMonitor(t)
	ctx := context.Background()

	s.failAppends(errDiskFull)
	p.set("lost?", nil)
	item, err := m.checkClipboard(ctx)
	assert.ErrorIs(t, err, storage.ErrPersistence)
	assert.Nil(t, item)
	assert.Nil(t, m.tracker.Last())

	// 存储恢复后，同样的内容在下一次变化时仍会被记录
	s.failAppends(nil)
	p.bump()
	item, err = m.checkClipboard(ctx)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "lost?", item.Text())
}

func TestMonitorProviderUnavailable(t *testing.T) {
	m, p, s := newTestMonitor(t)
	p.set("text", nil)
	p.fail(ErrProviderUnavailable)

	_, err := m.checkClipboard(context.Background())
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Zero(t, s.appends)

	p.fail(nil)
	item, err := m.checkClipboard(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, item)
}

func TestMonitorCapturesImage(t *testing.T) {
	m, p, s := newTestMonitor(t)
	ctx := context.Background()
	data := pngBytes(t, 4, 4, color.White)

	p.set("", data)
	item, err := m.checkClipboard(ctx)
	require.NoError(t, err)
	require.NotNil(t, item)

	path := item.ImagePath()
	require.NotEmpty(t, path)
	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, saved)

	// 同一张图片再次出现不重复记录
	p.set("", data)
	item, err = m.checkClipboard(ctx)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.Equal(t, 1, s.len())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMonitorRemovesImageWhenAppendFails(t *testing.T) {
	m, p, s := newTestMonitor(t)
	s.failAppends(errDiskFull)
	p.set("", pngBytes(t, 2, 2, color.Black))

	_, err := m.checkClipboard(context.Background())
	require.Error(t, err)

	entries, err := os.ReadDir(m.processor.ImageDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMonitorTimestampsNeverGoBackwards(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{base.Add(time.Minute), base, base.Add(2 * time.Minute)}
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := times[0]
		times = times[1:]
		return now
	}
	m, p, _ := newTestMonitor(t, WithClock(clock))
	ctx := context.Background()

	var stamps []time.Time
	for _, text := range []string{"a", "b", "c"} {
		p.set(text, nil)
		item, err := m.checkClipboard(ctx)
		require.NoError(t, err)
		stamps = append(stamps, item.CreatedAt)
	}
	assert.Equal(t, base.Add(time.Minute), stamps[0])
	assert.Equal(t, base.Add(time.Minute), stamps[1])
	assert.Equal(t, base.Add(2*time.Minute), stamps[2])
}

func TestMonitorAfterSaveHook(t *testing.T) {
	var seen []int64
	m, p, _ := newTestMonitor(t, WithAfterSave(func(_ context.Context, item *model.ClipboardItem) {
		seen = append(seen, item.ID)
	}))
	p.set("x", nil)
	_, err := m.checkClipboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, seen)
}

func TestMonitorStartStop(t *testing.T) {
	m, p, s := newTestMonitor(t, WithInterval(5*time.Millisecond))
	events, cancel := m.Bus().Subscribe(8)
	defer cancel()

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.IsRunning())
	assert.Error(t, m.Start(context.Background()))

	p.set("from loop", nil)
	select {
	case e := <-events:
		assert.Equal(t, "from loop", e.Item.Text())
	case <-time.After(2 * time.Second):
		t.Fatal("capture not observed")
	}

	m.Stop()
	assert.False(t, m.IsRunning())
	m.Stop()

	p.set("after stop", nil)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, s.len())

	// 停止后可以再次启动
	require.NoError(t, m.Start(context.Background()))
	m.Stop()
}

func TestMonitorStopsWithContext(t *testing.T) {
	m, _, _ := newTestMonitor(t, WithInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		m.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit on context cancel")
	}
	assert.False(t, m.IsRunning())

	// 循环因 ctx 结束退出后，不调用 Stop 也能再次启动
	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.IsRunning())
	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestMonitorSetInterval(t *testing.T) {
	m, _, _ := newTestMonitor(t)
	assert.Equal(t, DefaultInterval, m.Interval())
	m.SetInterval(time.Second)
	assert.Equal(t, time.Second, m.Interval())
	m.SetInterval(0)
	assert.Equal(t, DefaultInterval, m.Interval())
}

func TestMonitorSetContentIsNotRecaptured(t *testing.T) {
	m, p, s := newTestMonitor(t)
	ctx := context.Background()

	p.set("original", nil)
	_, err := m.checkClipboard(ctx)
	require.NoError(t, err)

	require.NoError(t, m.SetContent(&model.ClipboardItem{ID: 9, Content: model.Text{Value: "restored"}}))
	assert.Equal(t, []string{"restored"}, p.written)

	item, err := m.checkClipboard(ctx)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.Equal(t, 1, s.len())
}

func TestMonitorSetContentImage(t *testing.T) {
	m, _, s := newTestMonitor(t)
	data := pngBytes(t, 2, 3, color.White)
	path, err := m.processor.SaveImage(data, "png")
	require.NoError(t, err)

	require.NoError(t, m.SetContent(&model.ClipboardItem{ID: 1, Content: model.Image{Path: path}}))
	item, err := m.checkClipboard(context.Background())
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.Zero(t, s.appends)

	assert.Error(t, m.SetContent(nil))
}

func TestRestoreWritesThroughWriter(t *testing.T) {
	processor, err := NewProcessor(filepath.Join(t.TempDir(), "images"))
	require.NoError(t, err)
	p := &fakeProvider{}

	content, err := Restore(p, processor, model.Text{Value: "back"})
	require.NoError(t, err)
	assert.Equal(t, model.Text{Value: "back"}, content)
	assert.Equal(t, []string{"back"}, p.written)

	data := pngBytes(t, 3, 2, color.Black)
	path, err := processor.SaveImage(data, "png")
	require.NoError(t, err)
	content, err = Restore(p, processor, model.Image{Path: path})
	require.NoError(t, err)
	img, ok := content.(model.Image)
	require.True(t, ok)
	assert.Equal(t, imageID(3, 2, data), img.Digest)
	got, ok := p.Image()
	require.True(t, ok)
	assert.Equal(t, data, got)

	_, err = Restore(p, nil, model.Image{Path: path})
	assert.ErrorIs(t, err, ErrUnsupportedImg)
}
