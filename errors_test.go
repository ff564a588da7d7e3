package sitetheory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigurationError_Message(t *testing.T) {
	t.Parallel()

	err := ConfigurationError("zipSubfolder", "requires %s", "sourceKey")
	require.Equal(t, "config.invalid: zipSubfolder: requires sourceKey", err.Error())
	require.True(t, IsConfigurationError(err))
	require.False(t, IsDependencyResolutionError(err))
}

func TestDependencyResolutionError_WrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("zone not found")
	err := DependencyResolutionError("hostedZone:example.com", cause)

	require.ErrorIs(t, err, cause)
	require.True(t, IsDependencyResolutionError(fmt.Errorf("assemble: %w", err)))
	require.Contains(t, err.Error(), "hostedZone:example.com")
}

func TestProblems_Err(t *testing.T) {
	t.Parallel()

	var p Problems
	require.NoError(t, p.Err())

	p.Add(nil)
	require.NoError(t, p.Err())

	p.Addf("a", "first")
	require.Equal(t, "config.invalid: a: first", p.Err().Error())

	p.Addf("b", "second")
	err := p.Err()
	require.Error(t, err)
	require.True(t, IsConfigurationError(err))
	require.Contains(t, err.Error(), "second")
}

func TestIsCode_Nil(t *testing.T) {
	t.Parallel()

	require.False(t, IsCode(nil, ErrorCodeConfiguration))
	require.False(t, IsCode(errors.New("plain"), ErrorCodeConfiguration))
}
