package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger
)

// Options 日志输出参数
type Options struct {
	Level      string
	Filename   string // 为空时只输出到控制台
	MaxSize    int    // 单个日志文件最大尺寸，单位 MB
	MaxBackups int
	MaxAge     int // 单位天
	Compress   bool
}

// InitLogger 初始化 zap 日志记录器并替换全局 logger
func InitLogger(opts Options) *zap.Logger {
	core := zapcore.NewCore(getEncoder(), getLogWriter(opts), parseLevel(opts.Level))

	Logger = zap.New(core, zap.AddCaller())
	Sugar = Logger.Sugar()

	zap.ReplaceGlobals(Logger)
	return Logger
}

// parseLevel 无法识别的级别按 info 处理
func parseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// getEncoder 设置日志编码格式
func getEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// 大写并带颜色
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// getLogWriter 指定日志写入位置 (文件和控制台)
func getLogWriter(opts Options) zapcore.WriteSyncer {
	console := zapcore.AddSync(os.Stdout)
	if opts.Filename == "" {
		return console
	}
	// 使用 lumberjack 实现日志切割和归档
	lumberJackLogger := &lumberjack.Logger{
		Filename:   opts.Filename,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   opts.Compress,
	}
	return zapcore.NewMultiWriteSyncer(console, zapcore.AddSync(lumberJackLogger))
}
