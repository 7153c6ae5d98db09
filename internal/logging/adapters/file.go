package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// FileConfig represents configuration for the file adapter
type FileConfig struct {
	FilePath   string      `yaml:"file_path"`
	Format     string      `yaml:"format"`
	CreateDirs bool        `yaml:"create_dirs"`
	FileMode   os.FileMode `yaml:"file_mode"`
}

// FileAdapter appends formatted entries to a file
type FileAdapter struct {
	name      string
	config    FileConfig
	file      *os.File
	formatter logrus.Formatter
	mu        sync.Mutex
}

// NewFileAdapter opens (or creates) the log file
func NewFileAdapter(name string, config FileConfig) (*FileAdapter, error) {
	if config.FileMode == 0 {
		config.FileMode = 0644
	}

	if config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, config.FileMode)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", config.FilePath, err)
	}

	return &FileAdapter{
		name:      name,
		config:    config,
		file:      file,
		formatter: NewFormatter(config.Format, false),
	}, nil
}

// Levels implements logrus.Hook
func (a *FileAdapter) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook
func (a *FileAdapter) Fire(entry *logrus.Entry) error {
	line, err := a.formatter.Format(entry)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return fmt.Errorf("file adapter %s is closed", a.name)
	}
	_, err = a.file.Write(line)
	return err
}

// Close syncs and closes the file
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	_ = a.file.Sync()
	err := a.file.Close()
	a.file = nil
	return err
}

// Name returns the name of the adapter
func (a *FileAdapter) Name() string {
	return a.name
}
