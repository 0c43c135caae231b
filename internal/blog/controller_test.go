package blog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ButyrinIA/newsblog/internal/models"
	"github.com/ButyrinIA/newsblog/internal/persist"
	"github.com/ButyrinIA/newsblog/internal/storage/memory"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// мок для интерфейса Store
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, posts []models.Post) error {
	args := m.Called(ctx, posts)
	return args.Error(0)
}

func fixedIDs() *IDGenerator {
	return NewIDGenerator(func() time.Time { return time.UnixMilli(1000) })
}

func newController(t *testing.T) (*Controller, *persist.Adapter) {
	t.Helper()
	log, _ := test.NewNullLogger()
	adapter := persist.New(memory.New(), "news", log)
	c := New(adapter, log, WithIDGenerator(fixedIDs()))
	require.NoError(t, c.Initialize(context.Background()))
	return c, adapter
}

func contents(posts []models.Post) []string {
	result := make([]string, len(posts))
	for i, p := range posts {
		result[i] = p.Content
	}
	return result
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("Adopts Saved List", func(t *testing.T) {
		log, _ := test.NewNullLogger()
		store := memory.New()
		require.NoError(t, store.Set(ctx, "news", `[{"id":5000,"content":"B"},{"id":4000,"content":"A"}]`))

		c := New(persist.New(store, "news", log), log, WithIDGenerator(fixedIDs()))
		assert.False(t, c.Initialized())
		require.NoError(t, c.Initialize(ctx))
		assert.True(t, c.Initialized())
		assert.Equal(t, []string{"B", "A"}, contents(c.Posts()))

		// id новой записи должен быть больше всех загруженных
		require.True(t, c.Submit(ctx, "C"))
		assert.Equal(t, int64(5001), c.Posts()[0].ID)
	})

	t.Run("Runs Once", func(t *testing.T) {
		store := &mockStore{}
		store.On("Load", ctx).Return([]models.Post{{ID: 1, Content: "x"}}, nil).Once()
		log, _ := test.NewNullLogger()

		c := New(store, log)
		require.NoError(t, c.Initialize(ctx))
		require.NoError(t, c.Initialize(ctx))
		store.AssertNumberOfCalls(t, "Load", 1)
	})

	t.Run("Load Failure Blocks Saves", func(t *testing.T) {
		store := &mockStore{}
		store.On("Load", ctx).Return(nil, errors.New("unavailable"))
		log, _ := test.NewNullLogger()

		c := New(store, log)
		assert.Error(t, c.Initialize(ctx))
		assert.False(t, c.Initialized())

		assert.True(t, c.Submit(ctx, "в памяти"))
		assert.Len(t, c.Posts(), 1)
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("No Save Before Initialize", func(t *testing.T) {
		store := &mockStore{}
		log, _ := test.NewNullLogger()

		c := New(store, log)
		assert.True(t, c.Submit(ctx, "рано"))
		assert.True(t, c.Delete(ctx, c.Posts()[0].ID))
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("Adds Trimmed Post First", func(t *testing.T) {
		c, _ := newController(t)

		require.True(t, c.Submit(ctx, "  Hello \n"))
		require.True(t, c.Submit(ctx, "World"))

		posts := c.Posts()
		assert.Equal(t, []string{"World", "Hello"}, contents(posts))
		assert.NotEqual(t, posts[0].ID, posts[1].ID, "id должны быть уникальны")
		assert.Empty(t, c.Draft())
	})

	t.Run("Rejects Blank Content", func(t *testing.T) {
		c, _ := newController(t)
		c.SetDraft("черновик")

		for _, blank := range []string{"", "   ", "\t\n", "  "} {
			assert.False(t, c.Submit(ctx, blank), "Пустой текст %q должен отклоняться", blank)
		}
		assert.Empty(t, c.Posts())
		assert.Equal(t, "черновик", c.Draft(), "Отклонённая отправка не меняет состояние")
	})

	t.Run("Edit Replaces In Place", func(t *testing.T) {
		c, _ := newController(t)
		require.True(t, c.Submit(ctx, "первая"))
		require.True(t, c.Submit(ctx, "A"))
		require.True(t, c.Submit(ctx, "третья"))
		target := c.Posts()[1]

		require.True(t, c.BeginEdit(target.ID))
		assert.Equal(t, "A", c.Draft())
		id, editing := c.EditingID()
		assert.True(t, editing)
		assert.Equal(t, target.ID, id)

		require.True(t, c.Submit(ctx, " B "))
		posts := c.Posts()
		assert.Len(t, posts, 3)
		assert.Equal(t, models.Post{ID: target.ID, Content: "B"}, posts[1])
		_, editing = c.EditingID()
		assert.False(t, editing, "Курсор редактирования должен сброситься")
		assert.Empty(t, c.Draft())
	})

	t.Run("Blank Edit Keeps Cursor", func(t *testing.T) {
		c, _ := newController(t)
		require.True(t, c.Submit(ctx, "A"))
		id := c.Posts()[0].ID
		require.True(t, c.BeginEdit(id))

		assert.False(t, c.Submit(ctx, "  "))
		editingID, editing := c.EditingID()
		assert.True(t, editing)
		assert.Equal(t, id, editingID)
		assert.Equal(t, "A", c.Posts()[0].Content)
	})

	t.Run("Persists After Each Change", func(t *testing.T) {
		c, adapter := newController(t)
		require.True(t, c.Submit(ctx, "Hello"))
		require.True(t, c.Submit(ctx, "World"))

		saved, err := adapter.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, c.Posts(), saved)
	})

	t.Run("Save Failure Keeps Mutation", func(t *testing.T) {
		store := &mockStore{}
		store.On("Load", ctx).Return(nil, nil)
		store.On("Save", ctx, mock.Anything).Return(errors.New("quota exceeded"))
		log, hook := test.NewNullLogger()

		c := New(store, log)
		require.NoError(t, c.Initialize(ctx))
		assert.True(t, c.Submit(ctx, "A"))
		assert.Len(t, c.Posts(), 1)
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
		store.AssertNumberOfCalls(t, "Save", 1)
	})
}

func TestBeginEdit(t *testing.T) {
	c, _ := newController(t)

	assert.False(t, c.BeginEdit(42), "Несуществующий id игнорируется")
	_, editing := c.EditingID()
	assert.False(t, editing)

	require.True(t, c.Submit(context.Background(), "A"))
	require.True(t, c.BeginEdit(c.Posts()[0].ID))

	c.CancelEdit()
	_, editing = c.EditingID()
	assert.False(t, editing)
	assert.Empty(t, c.Draft())
	assert.Equal(t, "A", c.Posts()[0].Content)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Scenario Hello World", func(t *testing.T) {
		c, adapter := newController(t)

		require.True(t, c.Submit(ctx, "Hello"))
		assert.Equal(t, []string{"Hello"}, contents(c.Posts()))
		require.True(t, c.Submit(ctx, "World"))
		assert.Equal(t, []string{"World", "Hello"}, contents(c.Posts()))

		require.True(t, c.Delete(ctx, c.Posts()[1].ID))
		assert.Equal(t, []string{"World"}, contents(c.Posts()))

		saved, err := adapter.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"World"}, contents(saved))
	})

	t.Run("Missing Id", func(t *testing.T) {
		store := &mockStore{}
		store.On("Load", ctx).Return([]models.Post{{ID: 1, Content: "A"}}, nil)
		log, _ := test.NewNullLogger()

		c := New(store, log)
		require.NoError(t, c.Initialize(ctx))
		assert.False(t, c.Delete(ctx, 99))
		assert.Len(t, c.Posts(), 1)
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("Deleting Edited Post Clears Cursor", func(t *testing.T) {
		c, _ := newController(t)
		require.True(t, c.Submit(ctx, "A"))
		require.True(t, c.Submit(ctx, "B"))
		edited := c.Posts()[1].ID
		require.True(t, c.BeginEdit(edited))

		require.True(t, c.Delete(ctx, edited))
		_, editing := c.EditingID()
		assert.False(t, editing)
		assert.Empty(t, c.Draft())

		// следующая отправка создаёт новый пост, а не правит удалённый
		require.True(t, c.Submit(ctx, "C"))
		assert.Equal(t, []string{"C", "B"}, contents(c.Posts()))
	})

	t.Run("Deleting Other Post Keeps Cursor", func(t *testing.T) {
		c, _ := newController(t)
		require.True(t, c.Submit(ctx, "A"))
		require.True(t, c.Submit(ctx, "B"))
		posts := c.Posts()
		require.True(t, c.BeginEdit(posts[0].ID))

		require.True(t, c.Delete(ctx, posts[1].ID))
		id, editing := c.EditingID()
		assert.True(t, editing)
		assert.Equal(t, posts[0].ID, id)
		assert.Equal(t, "B", c.Draft())
	})
}

func TestEditScenario(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)

	require.True(t, c.Submit(ctx, "A"))
	id := c.Posts()[0].ID
	require.True(t, c.BeginEdit(id))
	require.True(t, c.Submit(ctx, "B"))

	assert.Equal(t, []models.Post{{ID: id, Content: "B"}}, c.Posts())
}

func TestPostsReturnsCopy(t *testing.T) {
	c, _ := newController(t)
	require.True(t, c.Submit(context.Background(), "A"))

	posts := c.Posts()
	posts[0].Content = "изменено снаружи"
	assert.Equal(t, "A", c.Posts()[0].Content)
}
