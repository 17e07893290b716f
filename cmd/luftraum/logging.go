package main

import (
	"io"
	"log"
	"os"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"gopkg.in/natefinch/lumberjack.v2"

	"luftraum/internal/config"
	"luftraum/internal/web"
)

// setupLogging sends the standard logger to stderr, the in-memory buffer
// served at /api/logs and, when configured, a rotating file. The returned
// closer flushes the file.
func setupLogging(cfg config.LogConfig, buf *web.LogBuffer) io.Closer {
	writers := []io.Writer{os.Stderr}
	if buf != nil {
		writers = append(writers, buf)
	}
	var file *lumberjack.Logger
	if p := strings.TrimSpace(cfg.Path); p != "" {
		file = &lumberjack.Logger{
			Filename:   p,
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		writers = append(writers, file)
	}
	out := io.MultiWriter(writers...)
	log.SetOutput(out)

	mqtt.ERROR = log.New(out, "mqtt error: ", log.LstdFlags)
	mqtt.CRITICAL = log.New(out, "mqtt critical: ", log.LstdFlags)

	if file == nil {
		return closerFunc(func() error { return nil })
	}
	return file
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
