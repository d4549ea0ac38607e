package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"urlshorten/internal/bootstrap"
	"urlshorten/internal/migrations"
	"urlshorten/internal/repository/postgres"
	"urlshorten/internal/shortener"
)

func newCreateCmd(a *app) *cobra.Command {
	var (
		url   string
		alias string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "为长链接创建短链接",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			allocator, _ := bootstrap.NewShortener(store, a.cfg, a.log)
			req := shortener.AllocateRequest{OriginalURL: url}
			if alias != "" {
				req.CustomAlias = &alias
			}
			link, err := allocator.Allocate(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "短链接: %s\n", link.ShortenedURL)
			fmt.Fprintf(out, "短码:   %s\n", link.Code)
			fmt.Fprintf(out, "原链接: %s\n", link.OriginalURL)
			return nil
		},
	}
	cmd.Flags().StringVarP(&url, "url", "u", "", "要缩短的长链接")
	cmd.Flags().StringVarP(&alias, "alias", "a", "", "自定义别名")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "解析短码并累加点击数",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			_, resolver := bootstrap.NewShortener(store, a.cfg, a.log)
			res, err := resolver.Lookup(cmd.Context(), code)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (点击数 %d)\n", res.OriginalURL, res.ClickCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "短码")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "显示短链接统计",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "链接总数: %d\n", stats.TotalLinks)
			fmt.Fprintf(out, "启用链接: %d\n", stats.ActiveLinks)
			fmt.Fprintf(out, "点击总数: %d\n", stats.TotalClicks)
			return nil
		},
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "创建或更新数据库表结构",
		RunE: func(cmd *cobra.Command, args []string) error {
			// 打开存储时会执行迁移
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if pg, ok := store.LinkStore.(*postgres.Store); ok {
				version, dirty, err := migrations.NewMigrator(pg.SQLDB(), a.log).Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "迁移完成，当前版本 %d (dirty=%t)\n", version, dirty)
				return nil
			}
			fmt.Fprintf(out, "迁移完成 (%s)\n", a.cfg.Database.Driver)
			return nil
		},
	}
}
