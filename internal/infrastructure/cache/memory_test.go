package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("guarda y recupera dentro del TTL", func(t *testing.T) {
		c := NewMemory()
		c.Set(ctx, "cfg:empresa:tipo", []byte("valor"), time.Minute)

		v, ok := c.Get(ctx, "cfg:empresa:tipo")
		require.True(t, ok)
		assert.Equal(t, []byte("valor"), v)
	})

	t.Run("clave ausente", func(t *testing.T) {
		c := NewMemory()
		_, ok := c.Get(ctx, "nada")
		assert.False(t, ok)
	})

	t.Run("una entrada vencida no se sirve", func(t *testing.T) {
		c := NewMemory()
		c.Set(ctx, "efimera", []byte("x"), 10*time.Millisecond)
		time.Sleep(30 * time.Millisecond)

		_, ok := c.Get(ctx, "efimera")
		assert.False(t, ok)
	})

	t.Run("DeletePrefix barre el namespace completo", func(t *testing.T) {
		c := NewMemory()
		c.Set(ctx, "cfg:acme:facturacion", []byte("a"), time.Minute)
		c.Set(ctx, "cfg:acme:archivos", []byte("b"), time.Minute)
		c.Set(ctx, "cfg:otra:facturacion", []byte("c"), time.Minute)

		c.DeletePrefix(ctx, "cfg:acme:")

		_, ok := c.Get(ctx, "cfg:acme:facturacion")
		assert.False(t, ok)
		_, ok = c.Get(ctx, "cfg:acme:archivos")
		assert.False(t, ok)
		_, ok = c.Get(ctx, "cfg:otra:facturacion")
		assert.True(t, ok, "otros namespaces quedan intactos")
	})
}
