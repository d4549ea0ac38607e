// Package gormstore 基于 gorm 的短链接存储，支持 MySQL 和 SQLite。
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"urlshorten/internal/model"
	"urlshorten/internal/repository"
)

// Store gorm 实现
type Store struct {
	db *gorm.DB
}

var _ repository.LinkStore = (*Store)(nil)

// New 创建存储。db 应以 TranslateError: true 打开，唯一冲突才能被识别。
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate 建表
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&model.ShortLink{}, &model.User{})
}

func (s *Store) ExistsByShortenedURL(ctx context.Context, shortenedURL string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.ShortLink{}).
		Where("shortened_url = ?", shortenedURL).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Insert(ctx context.Context, link *model.ShortLink) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) FindActiveByShortenedURLSuffix(ctx context.Context, suffix string) (*model.ShortLink, error) {
	code, ok := model.CodeFromSuffix(suffix)
	if !ok {
		return nil, repository.ErrNotFound
	}

	// code 列由 shortened_url 派生，按索引命中后再核对后缀
	var candidates []model.ShortLink
	err := s.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", code, true).
		Order("id ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if strings.HasSuffix(candidates[i].ShortenedURL, suffix) {
			return &candidates[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) IncrementClickCount(ctx context.Context, id uint) (int64, error) {
	var clicks int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ShortLink{}).
			Where("id = ? AND is_active = ?", id, true).
			UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return tx.Model(&model.ShortLink{}).
			Where("id = ?", id).
			Select("click_count").
			Scan(&clicks).Error
	})
	if err != nil {
		return 0, translate(err)
	}
	return clicks, nil
}

func (s *Store) List(ctx context.Context, filter repository.ListFilter) ([]model.ShortLink, int64, error) {
	filter = filter.NormalizeLimit()

	query := s.db.WithContext(ctx).Model(&model.ShortLink{})
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + q + "%"
		query = query.Where("original_url LIKE ? OR shortened_url LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var links []model.ShortLink
	err := query.Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&links).Error
	if err != nil {
		return nil, 0, err
	}
	return links, total, nil
}

func (s *Store) FindByID(ctx context.Context, id uint) (*model.ShortLink, error) {
	var link model.ShortLink
	if err := s.db.WithContext(ctx).First(&link, id).Error; err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (s *Store) Update(ctx context.Context, id uint, patch repository.Patch) (*model.ShortLink, error) {
	updates := map[string]interface{}{}
	if patch.OriginalURL != nil {
		updates["original_url"] = *patch.OriginalURL
	}
	if patch.CustomAlias != nil {
		updates["custom_alias"] = *patch.CustomAlias
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}

	var link model.ShortLink
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&link, id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&link).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&link, id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (s *Store) Delete(ctx context.Context, id uint) (*model.ShortLink, error) {
	var link model.ShortLink
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&link, id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ShortLink{}, id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (s *Store) Stats(ctx context.Context) (repository.Stats, error) {
	var stats repository.Stats
	db := s.db.WithContext(ctx).Model(&model.ShortLink{})

	if err := db.Session(&gorm.Session{}).Count(&stats.TotalLinks).Error; err != nil {
		return stats, err
	}
	if err := db.Session(&gorm.Session{}).Select("COALESCE(SUM(click_count), 0)").Scan(&stats.TotalClicks).Error; err != nil {
		return stats, err
	}
	if err := db.Session(&gorm.Session{}).Where("is_active = ?", true).Count(&stats.ActiveLinks).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层连接失败: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// translate 把 gorm 和驱动错误转换成 repository 的哨兵错误
func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrUniqueViolation):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", repository.ErrUniqueViolation, err)
	}
	// 未开启 TranslateError 时按驱动的错误文本兜底
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry") {
		return fmt.Errorf("%w: %v", repository.ErrUniqueViolation, err)
	}
	return err
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_login", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
