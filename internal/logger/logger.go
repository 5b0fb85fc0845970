package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// Logger 全局日志实例，应用内各包直接使用
	Logger = log.Logger
)

// Config 日志配置
type Config struct {
	Level        string `json:"level" yaml:"level"`                 // debug, info, warn, error
	Format       string `json:"format" yaml:"format"`               // json 或 pretty
	TimeFormat   string `json:"time_format" yaml:"time_format"`     // 时间戳格式
	ReportCaller bool   `json:"report_caller" yaml:"report_caller"` // 是否记录调用位置
}

// Init 根据配置初始化全局日志实例。
// extraWriters在控制台之外追加输出目标（例如日志文件），所有目标共用同一级别。
func Init(config Config, extraWriters ...io.Writer) {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	var console io.Writer = os.Stderr
	if config.Format == "pretty" {
		console = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: config.TimeFormat,
		}
	}

	writers := append([]io.Writer{console}, extraWriters...)
	output := zerolog.MultiLevelWriter(writers...)

	contextLogger := zerolog.New(output).
		Level(level).
		With().
		Timestamp()

	if config.ReportCaller {
		contextLogger = contextLogger.Caller()
	}

	// 同时替换本包和zerolog库的全局logger
	Logger = contextLogger.Logger()
	log.Logger = Logger
}

// Debug 开始一条debug级别的日志事件
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Info 开始一条info级别的日志事件
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn 开始一条warn级别的日志事件
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error 开始一条error级别的日志事件
func Error() *zerolog.Event {
	return Logger.Error()
}
