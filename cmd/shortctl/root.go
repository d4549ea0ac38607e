package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"urlshorten/internal/bootstrap"
	"urlshorten/internal/config"
	"urlshorten/pkg/logger"
)

// app 每条命令运行时共享的依赖
type app struct {
	configPath string
	cfg        *config.Config
	log        *zap.SugaredLogger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "shortctl",
		Short:         "短链接服务的命令行工具",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			// 命令行只输出到控制台
			a.log = logger.InitLogger(logger.Options{Level: "warn"}).Sugar()
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "configs/config.yaml", "配置文件路径")

	root.AddCommand(
		newCreateCmd(a),
		newResolveCmd(a),
		newStatsCmd(a),
		newMigrateCmd(a),
	)
	return root
}

// openStore 打开存储，调用方负责 Close
func (a *app) openStore(ctx context.Context) (*bootstrap.Store, error) {
	store, err := bootstrap.OpenStore(ctx, a.cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	return store, nil
}
