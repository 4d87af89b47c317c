package diag

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultLevel 是未配置 log_level 时的级别：只输出需要用户注意的内容。
const DefaultLevel = "warn"

// ParseLevel 解析日志级别；空串返回默认级别。
func ParseLevel(s string) (logrus.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		s = DefaultLevel
	}
	return logrus.ParseLevel(s)
}

// NewLogger 构造本次进程使用的 logger。
//
// 规则：
// - file 为空：文本格式写到 stderr
// - file 非空：单行 JSON 追加写入该文件（便于事后排查），stderr 不再输出日志
//
// 返回的 close 总是非 nil，调用方负责在退出前调用。
func NewLogger(level, file string, stderr io.Writer) (*logrus.Logger, func() error, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	l := logrus.New()
	l.SetLevel(lvl)

	if strings.TrimSpace(file) == "" {
		l.SetOutput(stderr)
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		return l, func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	l.SetOutput(f)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l, f.Close, nil
}

// Discard 返回一个不输出任何内容的 logger（测试与库调用方未提供 logger 时使用）。
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
