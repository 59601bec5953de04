package tool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return NewFunc(name, "echoes its arguments",
		json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return string(args), nil
		})
}

func TestRegistry_RegisterGet(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("echo")))

	got, ok := reg.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", got.Name())

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("echo")))

	err := reg.Register(echoTool("echo"))
	assert.ErrorContains(t, err, "already registered")
}

func TestRegistry_EmptyNameRejected(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(echoTool(""))
	assert.ErrorContains(t, err, "empty")
}

func TestRegistry_NamesSorted(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("zeta")))
	require.NoError(t, reg.Register(echoTool("alpha")))
	require.NoError(t, reg.Register(echoTool("mid")))

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, reg.Names())
}

func TestRegistry_Definitions(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("b")))
	require.NoError(t, reg.Register(echoTool("a")))

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "a", defs[0].Name)
	assert.Equal(t, "b", defs[1].Name)
	assert.Equal(t, "echoes its arguments", defs[0].Description)
	assert.NotEmpty(t, defs[0].Parameters)
}

func TestFunc_Call(t *testing.T) {
	f := echoTool("echo")
	out, err := f.Call(context.Background(), json.RawMessage(`{"k":"v"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"k":"v"}`, out)
}
