package learnvk

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package logger. It is a no-op logger until SetLogger is called.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the package logger. A nil logger silences logging.
// This must be called before the graphics library is initialized.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// NewFileLogger builds a logger that splits output into info_log.txt,
// warn_log.txt and error_log.txt inside dir. The returned func syncs and
// closes the files.
func NewFileLogger(dir string) (*zap.Logger, func(), error) {
	paths := []string{"info_log.txt", "warn_log.txt", "error_log.txt"}
	files := make([]*os.File, 0, len(paths))
	closeAll := func() {
		for _, f := range files {
			f.Sync()
			f.Close()
		}
	}
	for _, p := range paths {
		f, err := os.OpenFile(filepath.Join(dir, p), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		files = append(files, f)
	}

	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	levels := []zap.LevelEnablerFunc{
		func(l zapcore.Level) bool { return l < zapcore.WarnLevel },
		func(l zapcore.Level) bool { return l == zapcore.WarnLevel },
		func(l zapcore.Level) bool { return l > zapcore.WarnLevel },
	}
	cores := make([]zapcore.Core, len(files))
	for i, f := range files {
		cores[i] = zapcore.NewCore(enc, zapcore.AddSync(f), levels[i])
	}
	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return l, func() {
		l.Sync()
		closeAll()
	}, nil
}
