package log

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// SuppressFormatter wraps another formatter and renders nothing for entries
// whose message contains one of the configured patterns. logrus writes the
// formatted bytes as-is, so an empty slice means the entry is dropped.
type SuppressFormatter struct {
	inner    logrus.Formatter
	patterns []string
}

func NewSuppressFormatter(inner logrus.Formatter, patterns ...string) *SuppressFormatter {
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}

	return &SuppressFormatter{
		inner:    inner,
		patterns: cleaned,
	}
}

func (f *SuppressFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if f.Suppressed(entry.Message) {
		return []byte{}, nil
	}
	return f.inner.Format(entry)
}

func (f *SuppressFormatter) Suppressed(msg string) bool {
	for _, p := range f.patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
