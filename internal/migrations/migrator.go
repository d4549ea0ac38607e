// Package migrations 管理 PostgreSQL 表结构，迁移文件随二进制一起嵌入。
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed schema/*.sql
var migrationFiles embed.FS

// Migrator 执行嵌入的迁移
type Migrator struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewMigrator 创建迁移器
func NewMigrator(db *sql.DB, logger *zap.SugaredLogger) *Migrator {
	return &Migrator{db: db, logger: logger.Named("migrate")}
}

func (m *Migrator) instance() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "schema")
	if err != nil {
		return nil, fmt.Errorf("创建迁移源失败: %w", err)
	}
	driver, err := postgres.WithInstance(m.db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("创建 postgres 迁移驱动失败: %w", err)
	}
	inst, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("创建迁移实例失败: %w", err)
	}
	return inst, nil
}

// RunUp 应用全部未执行的迁移
func (m *Migrator) RunUp() error {
	m.logger.Info("开始执行数据库迁移")

	inst, err := m.instance()
	if err != nil {
		return err
	}
	defer inst.Close()

	err = inst.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("没有需要执行的迁移")
		return nil
	}
	if err != nil {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	m.logger.Info("数据库迁移完成")
	return nil
}

// Version 返回当前迁移版本以及是否处于 dirty 状态
func (m *Migrator) Version() (uint, bool, error) {
	inst, err := m.instance()
	if err != nil {
		return 0, false, err
	}
	defer inst.Close()

	version, dirty, err := inst.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
