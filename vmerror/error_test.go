package vmerror_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/corevm/vmerror"
)

func TestFormatMatchesFatalErrorReport(t *testing.T) {
	err := vmerror.New(vmerror.Dispatch, "undefined method %q", "inc").WithFrames([]vmerror.Frame{
		{File: "main.io", Name: "inc", Line: 12},
		{File: "main.io", Name: "main", Line: 3},
	})

	want := "Fatal error:\n\n" +
		`undefined method "inc"` + "\n" +
		`main.io line 12 in "inc"` + "\n" +
		`main.io line 3 in "main"` + "\n"

	assert.Equal(t, want, err.Format())
}

func TestKindNamesAreStable(t *testing.T) {
	require.Equal(t, "decode error", vmerror.Decode.String())
	require.Equal(t, "type error", vmerror.Type.String())
	require.Equal(t, "arithmetic error", vmerror.Arithmetic.String())
	require.Equal(t, "dispatch error", vmerror.Dispatch.String())
	require.Equal(t, "setup error", vmerror.Setup.String())
}
