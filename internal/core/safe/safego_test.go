package safe

import (
	"errors"
	"testing"

	coreerrors "securesvc-core/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall_ReturnsError(t *testing.T) {
	want := errors.New("boom")
	assert.Same(t, want, Call("plain", func() error { return want }))
	assert.NoError(t, Call("ok", func() error { return nil }))
}

func TestCall_RecoversPanic(t *testing.T) {
	before := GetStats()

	err := Call("handler", func() error { panic("kaboom") })
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeInternal, coreerrors.GetCode(err))
	assert.Contains(t, err.Error(), "kaboom")

	var ce *coreerrors.Error
	require.True(t, coreerrors.As(err, &ce))
	assert.Equal(t, "handler", ce.Detail("call"))

	after := GetStats()
	assert.Equal(t, before.PanicCount+1, after.PanicCount)
	assert.Equal(t, before.Total+1, after.Total)
	assert.Equal(t, int64(0), after.Active)
}
