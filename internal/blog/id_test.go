package blog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIDGenerator(t *testing.T) {
	t.Run("Same Millisecond", func(t *testing.T) {
		frozen := time.UnixMilli(1700000000000)
		ids := NewIDGenerator(func() time.Time { return frozen })

		first := ids.Next()
		second := ids.Next()
		third := ids.Next()

		assert.Equal(t, int64(1700000000000), first)
		assert.Equal(t, first+1, second)
		assert.Equal(t, second+1, third)
	})

	t.Run("Follows Clock", func(t *testing.T) {
		now := time.UnixMilli(1000)
		ids := NewIDGenerator(func() time.Time { return now })

		assert.Equal(t, int64(1000), ids.Next())
		now = now.Add(5 * time.Second)
		assert.Equal(t, int64(6000), ids.Next())
	})

	t.Run("Clock Going Backwards", func(t *testing.T) {
		now := time.UnixMilli(5000)
		ids := NewIDGenerator(func() time.Time { return now })

		assert.Equal(t, int64(5000), ids.Next())
		now = time.UnixMilli(10)
		assert.Equal(t, int64(5001), ids.Next())
	})

	t.Run("Observe Raises Floor", func(t *testing.T) {
		ids := NewIDGenerator(func() time.Time { return time.UnixMilli(100) })
		ids.Observe(9000)
		ids.Observe(50)

		assert.Equal(t, int64(9001), ids.Next())
	})
}
