package adapters

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// StdoutConfig represents configuration for the stdout adapter
type StdoutConfig struct {
	Format    string `yaml:"format"`    // json or text
	Colorized bool   `yaml:"colorized"` // enable colored output
}

// StdoutAdapter writes formatted entries to stdout
type StdoutAdapter struct {
	name      string
	out       io.Writer
	formatter logrus.Formatter
	mu        sync.Mutex
}

// NewStdoutAdapter creates a new stdout adapter
func NewStdoutAdapter(name string, config StdoutConfig) *StdoutAdapter {
	return &StdoutAdapter{
		name:      name,
		out:       os.Stdout,
		formatter: NewFormatter(config.Format, config.Colorized),
	}
}

// NewWriterAdapter is a stdout-style adapter over an arbitrary writer
func NewWriterAdapter(name string, w io.Writer, format string) *StdoutAdapter {
	return &StdoutAdapter{
		name:      name,
		out:       w,
		formatter: NewFormatter(format, false),
	}
}

// Levels implements logrus.Hook
func (a *StdoutAdapter) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook
func (a *StdoutAdapter) Fire(entry *logrus.Entry) error {
	line, err := a.formatter.Format(entry)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	_, err = a.out.Write(line)
	return err
}

// Close closes the adapter (no-op for stdout)
func (a *StdoutAdapter) Close() error {
	return nil
}

// Name returns the name of the adapter
func (a *StdoutAdapter) Name() string {
	return a.name
}

// NewFormatter maps the configured format name onto a logrus formatter
func NewFormatter(format string, colorized bool) logrus.Formatter {
	switch strings.ToLower(format) {
	case "text":
		return &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			ForceColors:     colorized,
			DisableColors:   !colorized,
		}
	default:
		return &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg: "message",
			},
		}
	}
}
