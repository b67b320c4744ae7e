package logger

import (
	"io"
	"log"
	"os"
	"sync/atomic"
)

var (
	// Info 正常日志，输出到 stdout
	Info *log.Logger

	// Error 错误日志，输出到 stderr
	Error *log.Logger

	debug atomic.Bool
)

func init() {
	Info = log.New(os.Stdout, "", log.LstdFlags)
	Error = log.New(os.Stderr, "", log.LstdFlags)
}

// SetOutput 重定向日志输出
func SetOutput(info, errOut io.Writer) {
	Info.SetOutput(info)
	Error.SetOutput(errOut)
}

// SetDebug 开启或关闭 debug 日志
func SetDebug(enabled bool) {
	debug.Store(enabled)
}

// Println 输出正常日志到 stdout
func Println(v ...interface{}) {
	Info.Println(v...)
}

// Printf 格式化输出正常日志到 stdout
func Printf(format string, v ...interface{}) {
	Info.Printf(format, v...)
}

// Debugf 仅在 debug 模式下输出
func Debugf(format string, v ...interface{}) {
	if !debug.Load() {
		return
	}
	Info.Printf("[debug] "+format, v...)
}

// Warnf 输出警告日志到 stdout
func Warnf(format string, v ...interface{}) {
	Info.Printf("⚠️  "+format, v...)
}

// Errorf 格式化输出错误日志到 stderr
func Errorf(format string, v ...interface{}) {
	Error.Printf(format, v...)
}

// Fatalf 输出致命错误并退出程序
func Fatalf(format string, v ...interface{}) {
	Error.Fatalf(format, v...)
}
