package configwatcher

import (
	"lms_backend/internal/config"
	"lms_backend/pkg/logger"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ConfigReloader 收到新配置后由调用方决定哪些字段可以热生效
type ConfigReloader func(cfg *config.Config)

// 编辑器保存配置时通常触发多次写事件，合并为一次重载
const debounce = 1 * time.Second

// WatchConfig 监听配置文件写入并在防抖后重新加载，阻塞运行，应放在独立 goroutine 里
func WatchConfig(configPath string, reloader ConfigReloader) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Log.Fatal("Failed to create config watcher", zap.Error(err))
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		logger.Log.Fatal("Failed to resolve config path", zap.Error(err))
	}

	if err := watcher.Add(absPath); err != nil {
		logger.Log.Fatal("Failed to watch config file", zap.String("path", absPath), zap.Error(err))
	}
	logger.Log.Info("Watching config file", zap.String("path", absPath))

	var mu sync.Mutex
	timer := time.NewTimer(0)
	<-timer.C

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				mu.Lock()
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(debounce)
				mu.Unlock()
			}
		case <-timer.C:
			newCfg, err := config.LoadConfig(filepath.Dir(configPath))
			if err != nil {
				logger.Log.Error("Failed to reload config", zap.Error(err))
				continue
			}
			reloader(newCfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
