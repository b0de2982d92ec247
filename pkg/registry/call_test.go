package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ztrue/tracerr"

	"github.com/jdziat/backgrounder/pkg/core"
)

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type target struct {
	got     []any
	ctx     context.Context
	handled error
}

func (t *target) Run() { t.got = []any{} }
func (t *target) Pair(a, b string) { t.got = []any{a, b} }
func (t *target) Count(n int) error {
	t.got = []any{n}
	return nil
}
func (t *target) Move(p point) { t.got = []any{p} }
func (t *target) WithContext(ctx context.Context, s string) {
	t.ctx = ctx
	t.got = []any{s}
}
func (t *target) Tags(prefix string, tags ...string) {
	t.got = []any{prefix, tags}
}
func (t *target) Fail() error { return errors.New("Exception") }
func (t *target) Result() (int, error) { return 0, errors.New("bad result") }
func (t *target) Explode() { panic("Exception!") }
func (t *target) ExceptionHandler(err error) { t.handled = err }
func (t *target) hidden() {}

func TestCall_NoArgs(t *testing.T) {
	tg := &target{}
	require.NoError(t, Call(context.Background(), tg, "Run", nil))
	assert.Equal(t, []any{}, tg.got)
}

func TestCall_PositionalArgsInOrder(t *testing.T) {
	tg := &target{}
	require.NoError(t, Call(context.Background(), tg, "Pair", []any{"data1", "data2"}))
	assert.Equal(t, []any{"data1", "data2"}, tg.got)
}

func TestCall_SnakeCaseName(t *testing.T) {
	tg := &target{}
	require.NoError(t, Call(context.Background(), tg, "run", nil))
	assert.Equal(t, []any{}, tg.got)

	err := errors.New("boom")
	require.NoError(t, Call(context.Background(), tg, "exception_handler", []any{err}))
	assert.Same(t, err, tg.handled)
}

func TestCall_ConvertsJSONDecodedArgs(t *testing.T) {
	tg := &target{}
	require.NoError(t, Call(context.Background(), tg, "Count", []any{float64(3)}))
	assert.Equal(t, []any{3}, tg.got)

	require.NoError(t, Call(context.Background(), tg, "Move", []any{map[string]any{"x": float64(1), "y": float64(2)}}))
	assert.Equal(t, []any{point{X: 1, Y: 2}}, tg.got)
}

func TestCall_ConversionFailure(t *testing.T) {
	err := Call(context.Background(), &target{}, "Count", []any{"three"})
	assert.ErrorContains(t, err, "argument 1")
}

func TestCall_InjectsContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	tg := &target{}

	require.NoError(t, Call(ctx, tg, "WithContext", []any{"s"}))
	assert.Equal(t, "v", tg.ctx.Value(key{}))
	assert.Equal(t, []any{"s"}, tg.got)
}

func TestCall_Variadic(t *testing.T) {
	tg := &target{}
	require.NoError(t, Call(context.Background(), tg, "Tags", []any{"p", "a", "b"}))
	assert.Equal(t, []any{"p", []string{"a", "b"}}, tg.got)

	require.NoError(t, Call(context.Background(), tg, "Tags", []any{"p"}))
	assert.Equal(t, []any{"p", []string{}}, tg.got)
}

func TestCall_ArgumentCount(t *testing.T) {
	err := Call(context.Background(), &target{}, "Pair", []any{"only-one"})
	assert.ErrorIs(t, err, core.ErrArgumentCount)
	assert.Contains(t, err.Error(), "given 1, expected 2")
}

func TestCall_UnknownAndUnexportedMethods(t *testing.T) {
	assert.ErrorIs(t, Call(context.Background(), &target{}, "missing", nil), core.ErrUnknownMethod)
	assert.ErrorIs(t, Call(context.Background(), &target{}, "hidden", nil), core.ErrUnknownMethod)
	assert.ErrorIs(t, Call(context.Background(), nil, "Run", nil), core.ErrUnknownMethod)
}

func TestCall_ReturnsTrailingError(t *testing.T) {
	assert.EqualError(t, Call(context.Background(), &target{}, "Fail", nil), "Exception")
	assert.EqualError(t, Call(context.Background(), &target{}, "Result", nil), "bad result")
}

func TestCall_RecoversPanicWithStack(t *testing.T) {
	err := Call(context.Background(), &target{}, "Explode", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: Exception!")
	assert.NotEmpty(t, tracerr.StackTrace(err))
}

func TestResponds(t *testing.T) {
	assert.True(t, Responds(&target{}, "run"))
	assert.True(t, Responds(&target{}, "ExceptionHandler"))
	assert.False(t, Responds(&target{}, "nope"))
}
