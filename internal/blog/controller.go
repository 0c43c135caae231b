// Package blog держит список новостей в памяти и синхронизирует его с хранилищем.
package blog

import (
	"context"
	"strings"

	"github.com/ButyrinIA/newsblog/internal/models"
	"github.com/sirupsen/logrus"
)

// Store - то, что контроллеру нужно от адаптера хранилища.
type Store interface {
	Load(ctx context.Context) ([]models.Post, error)
	Save(ctx context.Context, posts []models.Post) error
}

// Controller не потокобезопасен: вызовы должны идти последовательно.
type Controller struct {
	store Store
	ids   *IDGenerator
	log   logrus.FieldLogger

	posts       []models.Post
	draft       string
	editingID   int64
	editing     bool
	initialized bool
}

type Option func(*Controller)

// WithIDGenerator подменяет источник id (в тестах - с фиксированными часами).
func WithIDGenerator(ids *IDGenerator) Option {
	return func(c *Controller) {
		c.ids = ids
	}
}

func New(store Store, log logrus.FieldLogger, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		ids:   NewIDGenerator(nil),
		log:   log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize загружает сохранённый список. Повторные вызовы ничего не делают.
// При ошибке чтения контроллер остаётся неинициализированным и ничего не сохраняет,
// чтобы не затереть хранилище пустым списком.
func (c *Controller) Initialize(ctx context.Context) error {
	if c.initialized {
		return nil
	}

	posts, err := c.store.Load(ctx)
	if err != nil {
		return err
	}

	c.posts = posts
	for _, p := range c.posts {
		c.ids.Observe(p.ID)
	}
	c.initialized = true

	c.log.WithField("count", len(c.posts)).Info("Новости загружены")
	return nil
}

func (c *Controller) Initialized() bool {
	return c.initialized
}

// Posts возвращает копию списка, новые первыми.
func (c *Controller) Posts() []models.Post {
	result := make([]models.Post, len(c.posts))
	copy(result, c.posts)
	return result
}

func (c *Controller) Draft() string {
	return c.draft
}

func (c *Controller) SetDraft(content string) {
	c.draft = content
}

func (c *Controller) EditingID() (int64, bool) {
	return c.editingID, c.editing
}

// BeginEdit ставит курсор редактирования и копирует текст поста в черновик.
// Для несуществующего id возвращает false и ничего не меняет.
func (c *Controller) BeginEdit(id int64) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.editingID = id
	c.editing = true
	c.draft = c.posts[i].Content
	return true
}

func (c *Controller) CancelEdit() {
	c.clearEdit()
}

// Submit добавляет новый пост или заменяет текст редактируемого.
// Пустой после обрезки пробелов текст отклоняется без изменений состояния.
func (c *Controller) Submit(ctx context.Context, content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}

	if i := c.editedIndex(); i >= 0 {
		c.posts[i].Content = content
		c.log.WithField("id", c.posts[i].ID).Debug("Новость обновлена")
	} else {
		post := models.Post{ID: c.ids.Next(), Content: content}
		c.posts = append([]models.Post{post}, c.posts...)
		c.log.WithField("id", post.ID).Debug("Новость добавлена")
	}

	c.clearEdit()
	c.persist(ctx)
	return true
}

// Delete удаляет пост по id. Возвращает false, если такого поста нет.
func (c *Controller) Delete(ctx context.Context, id int64) bool {
	if c.editing && c.editingID == id {
		c.clearEdit()
	}

	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.posts = append(c.posts[:i:i], c.posts[i+1:]...)
	c.log.WithField("id", id).Debug("Новость удалена")

	c.persist(ctx)
	return true
}

func (c *Controller) editedIndex() int {
	if !c.editing {
		return -1
	}
	return c.indexOf(c.editingID)
}

func (c *Controller) indexOf(id int64) int {
	for i, p := range c.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) clearEdit() {
	c.editingID = 0
	c.editing = false
	c.draft = ""
}

// persist сохраняет список только после загрузки. Ошибка сохранения
// пишется в лог, изменение в памяти остаётся.
func (c *Controller) persist(ctx context.Context) {
	if !c.initialized {
		return
	}
	if err := c.store.Save(ctx, c.posts); err != nil {
		c.log.WithError(err).Error("Не удалось сохранить новости")
	}
}
