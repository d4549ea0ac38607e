package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options gorm 连接参数
type Options struct {
	Driver       string // mysql 或 sqlite
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     logger.LogLevel
}

// Open 打开 gorm 连接。开启 TranslateError，唯一冲突统一返回 gorm.ErrDuplicatedKey。
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "mysql":
		dialector = mysql.Open(opts.DSN)
	case "sqlite":
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("gorm 不支持的数据库驱动: %q", opts.Driver)
	}

	logLevel := opts.LogLevel
	if logLevel == 0 {
		logLevel = logger.Warn
	}

	connection, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库连接池失败: %w", err)
	}
	if opts.Driver == "sqlite" {
		// SQLite 只允许单个写连接
		sqlDB.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return connection, nil
}
