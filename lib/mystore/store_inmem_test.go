package mystore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Person struct {
	UID       string
	Name      string
	Age       int
	CreatedAt time.Time
}

var (
	now    = time.Date(2023, time.February, 27, 23, 58, 59, 0, time.UTC)
	marc   = Person{UID: "123", Name: "Marc", Age: 42, CreatedAt: now}
	eva    = Person{UID: "456", Name: "Eva", Age: 17, CreatedAt: now.Add(time.Hour)}
	pien   = Person{UID: "789", Name: "Pien", Age: 42, CreatedAt: now.Add(-time.Hour)}
	people = []Person{marc, eva, pien}
)

func TestStore(t *testing.T) {
	c := context.TODO()
	ps, cleanup, err := NewInMemoryStore[Person](c)
	require.NoError(t, err)
	defer cleanup()

	t.Run("Get not found", func(t *testing.T) {
		_, found, err := ps.Get(c, marc.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Put", func(t *testing.T) {
		err = ps.Put(c, marc.UID, marc)
		assert.NoError(t, err)
	})

	t.Run("Get found", func(t *testing.T) {
		p, found, err := ps.Get(c, marc.UID)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, marc, p)
	})

	t.Run("List", func(t *testing.T) {
		all, err := ps.List(c)
		assert.NoError(t, err)
		assert.Equal(t, []Person{marc}, all)
	})

	t.Run("Delete", func(t *testing.T) {
		assert.NoError(t, ps.Delete(c, marc.UID))
		_, found, err := ps.Get(c, marc.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})
}

func TestQuery(t *testing.T) {
	c := context.TODO()
	ps, _, _ := NewInMemoryStore[Person](c)
	for _, p := range people {
		require.NoError(t, ps.Put(c, p.UID, p))
	}

	t.Run("Equality filter", func(t *testing.T) {
		got, err := ps.Query(c, []Filter{{Field: "Age", Compare: "=", Value: 42}}, "")
		assert.NoError(t, err)
		assert.Equal(t, []Person{marc, pien}, got)
	})

	t.Run("Inequality filter ordered descending", func(t *testing.T) {
		got, err := ps.Query(c, []Filter{{Field: "Name", Compare: "!=", Value: "Pien"}}, "-CreatedAt")
		assert.NoError(t, err)
		assert.Equal(t, []Person{eva, marc}, got)
	})

	t.Run("Order on string", func(t *testing.T) {
		got, err := ps.Query(c, nil, "Name")
		assert.NoError(t, err)
		assert.Equal(t, []Person{eva, marc, pien}, got)
	})

	t.Run("No match", func(t *testing.T) {
		got, err := ps.Query(c, []Filter{{Field: "Name", Compare: "=", Value: "Dave"}}, "")
		assert.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Unknown field", func(t *testing.T) {
		_, err := ps.Query(c, []Filter{{Field: "Shoesize", Compare: "=", Value: 44}}, "")
		assert.Error(t, err)
	})

	t.Run("Unsupported comparison", func(t *testing.T) {
		_, err := ps.Query(c, []Filter{{Field: "Age", Compare: ">", Value: 18}}, "")
		assert.Error(t, err)
	})
}

func TestTransaction(t *testing.T) {
	c := context.TODO()

	t.Run("Commit", func(t *testing.T) {
		ps, _, _ := NewInMemoryStore[Person](c)

		err := ps.RunInTransaction(c, func(c context.Context) error {
			err := ps.Put(c, marc.UID, marc)
			if err != nil {
				return err
			}
			_, found, err := ps.Get(c, marc.UID)
			assert.True(t, found)
			return err
		})
		assert.NoError(t, err)

		_, found, _ := ps.Get(c, marc.UID)
		assert.True(t, found)
	})

	t.Run("Rollback", func(t *testing.T) {
		ps, _, _ := NewInMemoryStore[Person](c)
		require.NoError(t, ps.Put(c, eva.UID, eva))

		err := ps.RunInTransaction(c, func(c context.Context) error {
			_ = ps.Put(c, marc.UID, marc)
			_ = ps.Delete(c, eva.UID)
			return fmt.Errorf("abort")
		})
		assert.EqualError(t, err, "abort")

		all, _ := ps.List(c)
		assert.Equal(t, []Person{eva}, all)
	})

	t.Run("Other store inside transaction", func(t *testing.T) {
		ps, _, _ := NewInMemoryStore[Person](c)
		other, _, _ := NewInMemoryStore[Person](c)

		err := ps.RunInTransaction(c, func(c context.Context) error {
			return other.Put(c, marc.UID, marc)
		})
		assert.NoError(t, err)

		_, found, _ := other.Get(c, marc.UID)
		assert.True(t, found)
	})

	t.Run("Nested transaction joins outer", func(t *testing.T) {
		ps, _, _ := NewInMemoryStore[Person](c)

		err := ps.RunInTransaction(c, func(c context.Context) error {
			return ps.RunInTransaction(c, func(c context.Context) error {
				return ps.Put(c, marc.UID, marc)
			})
		})
		assert.NoError(t, err)
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "Person", kindOf[Person]())
}
