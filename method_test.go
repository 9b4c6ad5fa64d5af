package psro

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	names := []string{"uniform", "uniform_biased", "nash", "general_nash", "prd", "sp"}
	require.Len(t, Methods(), len(names))
	for i, name := range names {
		m, err := ParseMethod(name)
		require.NoError(t, err)
		assert.Equal(t, Methods()[i], m)
		assert.Equal(t, name, m.String())

		solver, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, m, solver.Method())
	}
}

func TestRegistry_UnknownMethod(t *testing.T) {
	_, err := Lookup("alpharank")
	assert.Equal(t, ErrUnknownMethod, errors.Cause(err))

	_, err = New(Method(42))
	assert.Equal(t, ErrUnknownMethod, errors.Cause(err))
	assert.Equal(t, "Method(42)", Method(42).String())
}

func TestResultKindString(t *testing.T) {
	assert.Equal(t, "SingleProfile", SingleProfile.String())
	assert.Equal(t, "ProfileList", ProfileList.String())
	assert.Equal(t, "ResultKind(5)", ResultKind(5).String())
	assert.Equal(t, "ResultKind(-1)", ResultKind(-1).String())
}
