package shortcode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

const (
	// Charset 包含用于生成短码的所有字符
	Charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// DefaultLength 是默认的短码长度，62^6 约 5.68e10 种组合
	DefaultLength = 6
)

var ErrInvalidLength = errors.New("code length must be positive")

// Generator 使用加密安全的随机源生成短码，本身不保存任何状态
type Generator struct {
	entropy io.Reader
	max     *big.Int
}

// NewGenerator 创建一个使用 crypto/rand 的生成器
func NewGenerator() *Generator {
	return NewGeneratorWithSource(rand.Reader)
}

// NewGeneratorWithSource 使用指定的随机源，主要用于测试
func NewGeneratorWithSource(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
		max:     big.NewInt(int64(len(Charset))),
	}
}

// Generate 生成一个长度为 length 的随机短码。
// rand.Int 在 [0, 62) 上均匀取值，不存在取模偏差。
func (g *Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(g.entropy, g.max)
		if err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		b[i] = Charset[num.Int64()]
	}
	return string(b), nil
}
