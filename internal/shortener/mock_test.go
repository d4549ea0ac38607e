package shortener

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"urlshorten/internal/model"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ExistsByShortenedURL(ctx context.Context, shortenedURL string) (bool, error) {
	args := m.Called(ctx, shortenedURL)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, link *model.ShortLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *mockStore) FindActiveByShortenedURLSuffix(ctx context.Context, suffix string) (*model.ShortLink, error) {
	args := m.Called(ctx, suffix)
	link, _ := args.Get(0).(*model.ShortLink)
	return link, args.Error(1)
}

func (m *mockStore) IncrementClickCount(ctx context.Context, id uint) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// sequenceGenerator 依次返回给定短码，用完后重复最后一个
type sequenceGenerator struct {
	mu    sync.Mutex
	codes []string
	calls int
	err   error
}

func (g *sequenceGenerator) Generate(int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	i := g.calls - 1
	if i >= len(g.codes) {
		i = len(g.codes) - 1
	}
	return g.codes[i], nil
}

func (g *sequenceGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
