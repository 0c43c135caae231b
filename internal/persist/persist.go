// Package persist хранит список постов целиком под одним ключом key-value хранилища.
package persist

import (
	"context"
	"encoding/json"

	"github.com/ButyrinIA/newsblog/internal/models"
	"github.com/ButyrinIA/newsblog/internal/storage"
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sirupsen/logrus"
)

// DefaultKey - ключ, под которым лежит список постов.
const DefaultKey = "news"

// ErrCorrupt - сохранённое значение не является списком постов.
// Наружу из Load не выходит, только пишется в лог.
var ErrCorrupt = errors.New("stored post list is corrupt")

const postListSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "content"],
		"properties": {
			"id": {"type": "integer"},
			"content": {"type": "string"}
		}
	}
}`

var schema = jsonschema.MustCompileString("post-list.schema.json", postListSchema)

type Adapter struct {
	store storage.Storage
	key   string
	log   logrus.FieldLogger
}

func New(store storage.Storage, key string, log logrus.FieldLogger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{store: store, key: key, log: log}
}

func (a *Adapter) Key() string {
	return a.key
}

// Load читает сохранённый список. Отсутствие ключа и испорченное значение
// дают пустой список без ошибки; ошибка возвращается только при сбое чтения.
func (a *Adapter) Load(ctx context.Context) ([]models.Post, error) {
	raw, found, err := a.store.Get(ctx, a.key)
	if err != nil {
		return nil, errors.Wrap(err, "load posts")
	}
	if !found {
		return nil, nil
	}

	posts, err := decode(raw)
	if err != nil {
		a.log.WithError(err).WithField("key", a.key).Warn("Сохранённые новости не разобраны, начинаем с пустого списка")
		return nil, nil
	}

	return a.dedupe(posts), nil
}

// Save перезаписывает слот полным списком.
func (a *Adapter) Save(ctx context.Context, posts []models.Post) error {
	if posts == nil {
		posts = []models.Post{}
	}
	data, err := json.Marshal(posts)
	if err != nil {
		return errors.Wrap(err, "encode posts")
	}
	return errors.Wrap(a.store.Set(ctx, a.key, string(data)), "save posts")
}

func decode(raw string) ([]models.Post, error) {
	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "parse: %v", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "shape: %v", err)
	}

	var posts []models.Post
	if err := json.Unmarshal([]byte(raw), &posts); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "decode: %v", err)
	}
	return posts, nil
}

// dedupe оставляет первое вхождение каждого id.
func (a *Adapter) dedupe(posts []models.Post) []models.Post {
	seen := make(map[int64]struct{}, len(posts))
	result := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if _, dup := seen[p.ID]; dup {
			a.log.WithField("id", p.ID).Warn("Повторяющийся id в сохранённых новостях, запись пропущена")
			continue
		}
		seen[p.ID] = struct{}{}
		result = append(result, p)
	}
	return result
}
