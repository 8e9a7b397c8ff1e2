package di_test

import (
	"errors"
	"testing"

	"github.com/sghaida/ctxdi/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// box is a hand-written context with one binding, shaped like generated code.
type box struct{ n int }

func (b *box) Clone() *box        { nb := *b; return &nb }
func (b *box) CloneContext() any  { return b.Clone() }
func (b *box) ProvideInt() int    { return b.n }
func (b *box) ProvideWithInt(replace func(int) (int, error)) (any, error) {
	if replace == nil {
		return nil, di.ErrNilReplacement
	}
	v, err := replace(b.n)
	if err != nil {
		return nil, err
	}
	nb := b.Clone()
	nb.n = v
	return nb, nil
}

type liar struct{}

func (liar) CloneContext() any { return "not a liar" }

func TestClone_ReturnsSameStaticType(t *testing.T) {
	t.Parallel()

	orig := &box{n: 1}
	cp, err := di.Clone(orig)
	require.NoError(t, err)
	require.NotSame(t, orig, cp)
	assert.Equal(t, 1, cp.n)

	cp.n = 2
	assert.Equal(t, 1, orig.n)
}

func TestClone_WrongType(t *testing.T) {
	t.Parallel()

	_, err := di.Clone(liar{})
	var wrong di.WrongTypeError
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, "string", wrong.GotType)

	assert.Panics(t, func() { di.MustClone(liar{}) })
	assert.NotPanics(t, func() { di.MustClone(&box{}) })
}

func TestReplaceHelpers(t *testing.T) {
	t.Parallel()

	v, err := di.Replace(9)(1)
	require.NoError(t, err)
	assert.Equal(t, 9, v)

	v, err = di.ReplaceFrom[int](di.FactoryFunc[int](func() (int, error) { return 5, nil }))(1)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestSubstitute(t *testing.T) {
	t.Parallel()

	orig := &box{n: 1}

	got, err := di.Substitute[*box](orig.ProvideWithInt, di.Replace(3))
	require.NoError(t, err)
	assert.Equal(t, 3, got.n)
	assert.Equal(t, 1, orig.n, "original must be untouched")

	boom := errors.New("boom")
	_, err = di.Substitute[*box](orig.ProvideWithInt, func(int) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	_, err = di.Substitute[*box, int](orig.ProvideWithInt, nil)
	assert.ErrorIs(t, err, di.ErrNilReplacement)

	_, err = di.Substitute[string](orig.ProvideWithInt, di.Replace(4))
	var wrong di.WrongTypeError
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, "*di_test.box", wrong.GotType)
}
