package logger

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LoggerService owns the process log file: it points the stdlib log package
// at a file under folder_path, rotates by size and archives old files into
// zips once they fall out of the retention window.
type LoggerService struct {
	mu            sync.Mutex
	file          *os.File
	currentLog    string
	folderPath    string
	maxFileBytes  int64
	retentionDays int
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

func NewLoggerService(cfg map[string]interface{}) *LoggerService {
	folder, _ := cfg["folder_path"].(string)
	if folder == "" {
		folder = "./logs"
	}
	return &LoggerService{
		folderPath:    folder,
		maxFileBytes:  int64(cfgInt(cfg, "max_file_mb")) * 1024 * 1024,
		retentionDays: cfgInt(cfg, "retention_days"),
		stopCh:        make(chan struct{}),
	}
}

func cfgInt(cfg map[string]interface{}, key string) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (l *LoggerService) Name() string { return "logger" }

func (l *LoggerService) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.folderPath, 0755); err != nil {
		return err
	}
	if err := l.openNewFileLocked(); err != nil {
		return err
	}
	log.Println("[LoggerService] Started, writing to", l.currentLog)

	l.wg.Add(1)
	go l.maintenanceLoop()
	return nil
}

func (l *LoggerService) Stop() error {
	close(l.stopCh)
	l.wg.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		log.Println("[LoggerService] Stopping")
		return l.file.Close()
	}
	return nil
}

// LogAudit writes an audit-tagged line through the shared log sink.
func (l *LoggerService) LogAudit(msg string) {
	log.Printf("[AUDIT] %s", msg)
}

func (l *LoggerService) openNewFileLocked() error {
	name := filepath.Join(l.folderPath, fmt.Sprintf("app_%s.log", time.Now().Format("20060102_150405")))
	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if l.file != nil {
		l.file.Close()
	}
	l.file = file
	l.currentLog = name
	log.SetOutput(file)
	return nil
}

func (l *LoggerService) maintenanceLoop() {
	defer l.wg.Done()
	rotate := time.NewTicker(10 * time.Second)
	retention := time.NewTicker(24 * time.Hour)
	defer rotate.Stop()
	defer retention.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-rotate.C:
			if err := l.rotateIfNeeded(); err != nil {
				log.Println("[LoggerService] rotation failed:", err)
			}
		case <-retention.C:
			l.archiveExpiredLogs()
		}
	}
}

func (l *LoggerService) rotateIfNeeded() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil || l.maxFileBytes <= 0 {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < l.maxFileBytes {
		return nil
	}
	if err := l.openNewFileLocked(); err != nil {
		return err
	}
	log.Println("[LoggerService] Rotated log file to", l.currentLog)
	return nil
}

// archiveExpiredLogs zips and removes log files older than the retention
// window. The current log file is never touched.
func (l *LoggerService) archiveExpiredLogs() {
	if l.retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -l.retentionDays)
	entries, err := os.ReadDir(l.folderPath)
	if err != nil {
		return
	}

	var expired []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".log" {
			continue
		}
		full := filepath.Join(l.folderPath, e.Name())
		if full == l.currentLog {
			continue
		}
		info, err := os.Stat(full)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		expired = append(expired, full)
	}
	if len(expired) == 0 {
		return
	}

	zipName := filepath.Join(l.folderPath, fmt.Sprintf("logs_%s.zip", time.Now().Format("20060102")))
	zf, err := os.Create(zipName)
	if err != nil {
		return
	}
	defer zf.Close()
	zw := zip.NewWriter(zf)
	defer zw.Close()

	for _, full := range expired {
		w, err := zw.Create(filepath.Base(full))
		if err != nil {
			continue
		}
		src, err := os.Open(full)
		if err != nil {
			continue
		}
		if _, err := io.Copy(w, src); err == nil {
			src.Close()
			os.Remove(full)
		} else {
			src.Close()
		}
	}
}

var GlobalLogger *LoggerService

func SetGlobalLogger(l *LoggerService) {
	GlobalLogger = l
}
