package shortener

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"urlshorten/internal/model"
	"urlshorten/internal/repository"
)

const testBaseURL = "http://sho.rt"

func newTestAllocator(store repository.Store, gen CodeGenerator, opts Options) *Allocator {
	if opts.BaseURL == "" {
		opts.BaseURL = testBaseURL
	}
	return NewAllocator(store, gen, opts, zap.NewNop().Sugar())
}

func TestAllocateGivesUpAfterFiveCollisions(t *testing.T) {
	store := new(mockStore)
	store.On("ExistsByShortenedURL", mock.Anything, mock.Anything).Return(true, nil)
	gen := &sequenceGenerator{codes: []string{"aaaaaa"}}

	alloc := newTestAllocator(store, gen, Options{})
	link, err := alloc.Allocate(context.Background(), AllocateRequest{OriginalURL: "https://example.com/a"})

	assert.Nil(t, link)
	assert.ErrorIs(t, err, ErrAllocationExhausted)
	assert.Equal(t, 5, gen.Calls())
	store.AssertNumberOfCalls(t, "ExistsByShortenedURL", 5)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAllocateRetriesOnInsertCollision(t *testing.T) {
	store := new(mockStore)
	store.On("ExistsByShortenedURL", mock.Anything, mock.Anything).Return(false, nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(repository.ErrUniqueViolation).Once()
	store.On("Insert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.ShortLink).ID = 7
		}).
		Return(nil).Once()
	gen := &sequenceGenerator{codes: []string{"aaaaaa", "bbbbbb"}}

	alloc := newTestAllocator(store, gen, Options{})
	link, err := alloc.Allocate(context.Background(), AllocateRequest{OriginalURL: "  https://example.com/a  "})

	require.NoError(t, err)
	assert.Equal(t, uint(7), link.ID)
	assert.Equal(t, "http://sho.rt/r/bbbbbb", link.ShortenedURL)
	assert.Equal(t, "bbbbbb", link.Code)
	assert.Equal(t, "https://example.com/a", link.OriginalURL)
	assert.Equal(t, int64(0), link.ClickCount)
	assert.True(t, link.IsActive)
	assert.False(t, link.CreatedAt.IsZero())
	assert.Equal(t, 2, gen.Calls())
	store.AssertExpectations(t)
}

func TestAllocateRetriesWhenCodeExists(t *testing.T) {
	store := new(mockStore)
	store.On("ExistsByShortenedURL", mock.Anything, "http://sho.rt/r/taken1").Return(true, nil)
	store.On("ExistsByShortenedURL", mock.Anything, "http://sho.rt/r/free01").Return(false, nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(nil)
	gen := &sequenceGenerator{codes: []string{"taken1", "free01"}}

	alloc := newTestAllocator(store, gen, Options{BaseURL: "http://sho.rt/"})
	link, err := alloc.Allocate(context.Background(), AllocateRequest{OriginalURL: "https://example.com/b"})

	require.NoError(t, err)
	assert.Equal(t, "http://sho.rt/r/free01", link.ShortenedURL)
	store.AssertNumberOfCalls(t, "Insert", 1)
}

func TestAllocatePersistenceErrorIsFatal(t *testing.T) {
	cause := errors.New("connection reset")

	t.Run("检查阶段", func(t *testing.T) {
		store := new(mockStore)
		store.On("ExistsByShortenedURL", mock.Anything, mock.Anything).Return(false, cause)
		gen := &sequenceGenerator{codes: []string{"aaaaaa"}}

		_, err := newTestAllocator(store, gen, Options{}).
			Allocate(context.Background(), AllocateRequest{OriginalURL: "https://example.com"})
		assert.ErrorIs(t, err, ErrPersistence)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 1, gen.Calls())
	})

	t.Run("写入阶段", func(t *testing.T) {
		store := new(mockStore)
		store.On("ExistsByShortenedURL", mock.Anything, mock.Anything).Return(false, nil)
		store.On("Insert", mock.Anything, mock.Anything).Return(cause)
		gen := &sequenceGenerator{codes: []string{"aaaaaa"}}

		_, err := newTestAllocator(store, gen, Options{}).
			Allocate(context.Background(), AllocateRequest{OriginalURL: "https://example.com"})
		assert.ErrorIs(t, err, ErrPersistence)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 1, gen.Calls())
	})
}

func TestAllocateTimeoutIsFatal(t *testing.T) {
	store := new(mockStore)
	store.On("ExistsByShortenedURL", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(false, context.DeadlineExceeded)
	gen := &sequenceGenerator{codes: []string{"aaaaaa"}}

	alloc := newTestAllocator(store, gen, Options{StoreTimeout: 20 * time.Millisecond})
	_, err := alloc.Allocate(context.Background(), AllocateRequest{OriginalURL: "https://example.com"})

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, gen.Calls())
}

func TestAllocateRejectsInvalidInput(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("x", 60)
	tooLongAlias := strings.Repeat("a", 151)
	tests := []struct {
		name string
		req  AllocateRequest
	}{
		{"空链接", AllocateRequest{OriginalURL: ""}},
		{"空白链接", AllocateRequest{OriginalURL: "   "}},
		{"链接超长", AllocateRequest{OriginalURL: long}},
		{"别名超长", AllocateRequest{OriginalURL: "https://example.com", CustomAlias: &tooLongAlias}},
		{"给定短链接不符合约定", AllocateRequest{OriginalURL: "https://example.com", ShortenedURL: "http://sho.rt/abc"}},
		{"给定短链接超长", AllocateRequest{OriginalURL: "https://example.com", ShortenedURL: "http://sho.rt/r/" + strings.Repeat("a", 140)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			gen := &sequenceGenerator{codes: []string{"aaaaaa"}}
			alloc := newTestAllocator(store, gen, Options{MaxURLLength: 50})

			_, err := alloc.Allocate(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Zero(t, gen.Calls())
			store.AssertNotCalled(t, "ExistsByShortenedURL", mock.Anything, mock.Anything)
		})
	}
}

func TestAllocateBlankAliasIsDropped(t *testing.T) {
	store := new(mockStore)
	store.On("ExistsByShortenedURL", mock.Anything, mock.Anything).Return(false, nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(nil)
	blank := "  "

	link, err := newTestAllocator(store, &sequenceGenerator{codes: []string{"abcdef"}}, Options{}).
		Allocate(context.Background(), AllocateRequest{OriginalURL: "https://example.com", CustomAlias: &blank})
	require.NoError(t, err)
	assert.Nil(t, link.CustomAlias)
}

func TestAllocateGivenShortenedURL(t *testing.T) {
	const given = "http://sho.rt/r/mine42"

	t.Run("可用", func(t *testing.T) {
		store := new(mockStore)
		store.On("ExistsByShortenedURL", mock.Anything, given).Return(false, nil)
		store.On("Insert", mock.Anything, mock.Anything).Return(nil)
		gen := &sequenceGenerator{codes: []string{"unused"}}
		alias := "mine"

		link, err := newTestAllocator(store, gen, Options{}).Allocate(context.Background(),
			AllocateRequest{OriginalURL: "https://example.com", ShortenedURL: given, CustomAlias: &alias})
		require.NoError(t, err)
		assert.Equal(t, given, link.ShortenedURL)
		assert.Equal(t, "mine42", link.Code)
		require.NotNil(t, link.CustomAlias)
		assert.Equal(t, "mine", *link.CustomAlias)
		assert.Zero(t, gen.Calls())
	})

	t.Run("已被占用", func(t *testing.T) {
		store := new(mockStore)
		store.On("ExistsByShortenedURL", mock.Anything, given).Return(true, nil)
		gen := &sequenceGenerator{codes: []string{"unused"}}

		_, err := newTestAllocator(store, gen, Options{}).Allocate(context.Background(),
			AllocateRequest{OriginalURL: "https://example.com", ShortenedURL: given})
		assert.ErrorIs(t, err, ErrDuplicateShortLink)
		assert.Zero(t, gen.Calls())
		store.AssertNumberOfCalls(t, "ExistsByShortenedURL", 1)
		store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("写入时被抢占", func(t *testing.T) {
		store := new(mockStore)
		store.On("ExistsByShortenedURL", mock.Anything, given).Return(false, nil)
		store.On("Insert", mock.Anything, mock.Anything).Return(repository.ErrUniqueViolation)

		_, err := newTestAllocator(store, &sequenceGenerator{codes: []string{"unused"}}, Options{}).
			Allocate(context.Background(), AllocateRequest{OriginalURL: "https://example.com", ShortenedURL: given})
		assert.ErrorIs(t, err, ErrDuplicateShortLink)
		store.AssertNumberOfCalls(t, "Insert", 1)
	})
}

func TestAllocateGeneratorFailure(t *testing.T) {
	store := new(mockStore)
	gen := &sequenceGenerator{err: errors.New("entropy unavailable")}

	_, err := newTestAllocator(store, gen, Options{}).
		Allocate(context.Background(), AllocateRequest{OriginalURL: "https://example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy unavailable")
	assert.NotErrorIs(t, err, ErrAllocationExhausted)
	store.AssertNotCalled(t, "ExistsByShortenedURL", mock.Anything, mock.Anything)
}

func TestPreview(t *testing.T) {
	store := new(mockStore)
	gen := &sequenceGenerator{codes: []string{"prev01"}}

	p, err := newTestAllocator(store, gen, Options{}).Preview()
	require.NoError(t, err)
	assert.Equal(t, "prev01", p.Code)
	assert.Equal(t, "http://sho.rt/r/prev01", p.ShortenedURL)
	store.AssertNotCalled(t, "ExistsByShortenedURL", mock.Anything, mock.Anything)
}
