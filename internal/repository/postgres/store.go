// Package postgres 基于 pgx 连接池的短链接存储。
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // 注册 database/sql 的 pgx 驱动，供迁移使用

	"urlshorten/internal/model"
	"urlshorten/internal/repository"
)

// uniqueViolation 是 PostgreSQL 唯一约束冲突的 SQLSTATE
const uniqueViolation = "23505"

const linkColumns = `id, original_url, shortened_url, code, custom_alias, click_count, is_active, created_at, updated_at`

// PoolConfig 连接池参数
type PoolConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store PostgreSQL 实现
type Store struct {
	pool  *pgxpool.Pool
	sqlDB *sql.DB
}

var _ repository.LinkStore = (*Store)(nil)

// Connect 创建 pgx 连接池，并额外打开一个 database/sql 连接给迁移工具使用
func Connect(ctx context.Context, cfg PoolConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres DSN 不能为空")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("解析数据库配置失败: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("创建连接池失败: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	sqlDB, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("打开 sql 连接失败: %w", err)
	}

	return &Store{pool: pool, sqlDB: sqlDB}, nil
}

// New 使用已有连接池创建存储
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SQLDB 返回给迁移工具使用的 *sql.DB
func (s *Store) SQLDB() *sql.DB {
	return s.sqlDB
}

// Close 释放连接池
func (s *Store) Close() {
	s.pool.Close()
	if s.sqlDB != nil {
		_ = s.sqlDB.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) ExistsByShortenedURL(ctx context.Context, shortenedURL string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM short_links WHERE shortened_url = $1)`,
		shortenedURL,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("查询短链接是否存在失败: %w", err)
	}
	return exists, nil
}

func (s *Store) Insert(ctx context.Context, link *model.ShortLink) error {
	if link.Code == "" {
		link.Code, _ = model.CodeFromShortenedURL(link.ShortenedURL)
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	link.UpdatedAt = link.CreatedAt

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO short_links (original_url, shortened_url, code, custom_alias, click_count, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		link.OriginalURL, link.ShortenedURL, link.Code, link.CustomAlias,
		link.ClickCount, link.IsActive, link.CreatedAt, link.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return translate(err)
	}
	link.ID = uint(id)
	return nil
}

func (s *Store) FindActiveByShortenedURLSuffix(ctx context.Context, suffix string) (*model.ShortLink, error) {
	code, ok := model.CodeFromSuffix(suffix)
	if !ok {
		return nil, repository.ErrNotFound
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+linkColumns+` FROM short_links WHERE code = $1 AND is_active ORDER BY id`,
		code,
	)
	if err != nil {
		return nil, translate(err)
	}
	links, err := pgx.CollectRows(rows, collectLink)
	if err != nil {
		return nil, translate(err)
	}
	for _, link := range links {
		if strings.HasSuffix(link.ShortenedURL, suffix) {
			return link, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) IncrementClickCount(ctx context.Context, id uint) (int64, error) {
	var clicks int64
	err := s.pool.QueryRow(ctx,
		`UPDATE short_links SET click_count = click_count + 1 WHERE id = $1 AND is_active RETURNING click_count`,
		int64(id),
	).Scan(&clicks)
	if err != nil {
		return 0, translate(err)
	}
	return clicks, nil
}

func (s *Store) List(ctx context.Context, filter repository.ListFilter) ([]model.ShortLink, int64, error) {
	filter = filter.NormalizeLimit()

	where := ""
	args := []any{}
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = ` WHERE original_url ILIKE $1 OR shortened_url ILIKE $1`
		args = append(args, "%"+q+"%")
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM short_links`+where, args...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	query := fmt.Sprintf(`SELECT %s FROM short_links%s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		linkColumns, where, len(args)+1, len(args)+2)
	rows, err := s.pool.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, translate(err)
	}
	ptrs, err := pgx.CollectRows(rows, collectLink)
	if err != nil {
		return nil, 0, translate(err)
	}

	links := make([]model.ShortLink, 0, len(ptrs))
	for _, link := range ptrs {
		links = append(links, *link)
	}
	return links, total, nil
}

func (s *Store) FindByID(ctx context.Context, id uint) (*model.ShortLink, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM short_links WHERE id = $1`, int64(id))
	link, err := scanLinkRow(row)
	if err != nil {
		return nil, translate(err)
	}
	return link, nil
}

func (s *Store) Update(ctx context.Context, id uint, patch repository.Patch) (*model.ShortLink, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE short_links SET
			original_url = COALESCE($2, original_url),
			custom_alias = COALESCE($3, custom_alias),
			is_active    = COALESCE($4, is_active),
			updated_at   = NOW()
		WHERE id = $1
		RETURNING `+linkColumns,
		int64(id), patch.OriginalURL, patch.CustomAlias, patch.IsActive,
	)
	link, err := scanLinkRow(row)
	if err != nil {
		return nil, translate(err)
	}
	return link, nil
}

func (s *Store) Delete(ctx context.Context, id uint) (*model.ShortLink, error) {
	row := s.pool.QueryRow(ctx, `DELETE FROM short_links WHERE id = $1 RETURNING `+linkColumns, int64(id))
	link, err := scanLinkRow(row)
	if err != nil {
		return nil, translate(err)
	}
	return link, nil
}

func (s *Store) Stats(ctx context.Context) (repository.Stats, error) {
	var stats repository.Stats
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(click_count), 0),
		       COUNT(*) FILTER (WHERE is_active)
		FROM short_links`,
	).Scan(&stats.TotalLinks, &stats.TotalClicks, &stats.ActiveLinks)
	if err != nil {
		return stats, translate(err)
	}
	return stats, nil
}

const userColumns = `id, username, email, password_hash, role, is_active, last_login, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id`,
		user.Username, user.Email, user.PasswordHash, user.Role, user.IsActive, now,
	).Scan(&id)
	if err != nil {
		return translate(err)
	}
	user.ID = uint(id)
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND deleted_at IS NULL`, username)
	return scanUser(row)
}

func (s *Store) FindUserByID(ctx context.Context, id uint) (*model.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, int64(id))
	return scanUser(row)
}

func (s *Store) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, int64(id), at)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func collectLink(row pgx.CollectableRow) (*model.ShortLink, error) {
	return scanLinkRow(row)
}

func scanLinkRow(row pgx.Row) (*model.ShortLink, error) {
	var (
		link model.ShortLink
		id   int64
	)
	err := row.Scan(&id, &link.OriginalURL, &link.ShortenedURL, &link.Code, &link.CustomAlias,
		&link.ClickCount, &link.IsActive, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		return nil, err
	}
	link.ID = uint(id)
	return &link, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user model.User
		id   int64
	)
	err := row.Scan(&id, &user.Username, &user.Email, &user.PasswordHash, &user.Role,
		&user.IsActive, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	user.ID = uint(id)
	return &user, nil
}

// translate 把 pgx 错误转换成 repository 的哨兵错误
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrUniqueViolation, pgErr.ConstraintName)
	}
	return err
}
