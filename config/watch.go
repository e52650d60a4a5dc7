package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay 合并短时间内的多次写入
const reloadDelay = 100 * time.Millisecond

// Watch 监听配置文件变化，重新加载成功后回调 onChange
// ctx 结束时停止监听
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*AppConfig)) error {
	if path == "" {
		path = DefaultPath()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建配置监听器失败: %w", err)
	}
	// 监听所在目录，编辑器保存时常常是替换文件
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("监听配置目录失败: %w", err)
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filepath.Base(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDelay, func() {
					cfg, err := Load(path)
					if err != nil {
						logger.Warn("重新加载配置失败", "path", path, "error", err)
						return
					}
					logger.Info("配置已重新加载", "path", path)
					onChange(cfg)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("配置监听出错", "error", err)
			}
		}
	}()
	return nil
}
