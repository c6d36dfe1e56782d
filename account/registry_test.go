package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, err := r.Active()
	assert.ErrorIs(t, err, ErrNoActiveAccount)

	a := NewPaper(PaperConfig{ID: "a"})
	b := NewPaper(PaperConfig{ID: "b"})
	require.NoError(t, r.Add(b))
	require.NoError(t, r.Add(a))
	assert.ErrorIs(t, r.Add(NewPaper(PaperConfig{ID: "a"})), ErrAccountExists)

	active, err := r.Active()
	require.NoError(t, err)
	assert.Equal(t, "b", active.ID())

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID())
	assert.Equal(t, "b", list[1].ID())

	got, err := r.Get("a")
	require.NoError(t, err)
	assert.Same(t, a, got)
	_, err = r.Get("zzz")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	assert.ErrorIs(t, r.Remove("b"), ErrActiveAccount)
	assert.ErrorIs(t, r.SetActive("zzz"), ErrAccountNotFound)
	require.NoError(t, r.SetActive("a"))
	require.NoError(t, r.Remove("b"))
	assert.ErrorIs(t, r.Remove("b"), ErrAccountNotFound)
	assert.Len(t, r.List(), 1)
}
