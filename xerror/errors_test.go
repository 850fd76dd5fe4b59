package xerror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		code int
		err  error
		want string
	}{
		{name: "lex", code: CodeLexError, err: errors.New("unterminated string"), want: "lex error: unterminated string"},
		{name: "crypto", code: CodeCryptoError, err: errors.New("rng failed"), want: "crypto error: rng failed"},
		{name: "nil cause", code: CodeIoError, err: nil, want: "io error: error not set"},
		{name: "unknown code", code: 99, err: errors.New("x"), want: "error: x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := New(tt.code, tt.err)
			assert.Equal(t, tt.code, ce.Code())
			assert.Equal(t, tt.want, ce.Error())
		})
	}
}

func TestCodeOfThroughWrapping(t *testing.T) {
	base := errors.New("boom")
	err := WrapPassError("strings", fmt.Errorf("wrapped: %w", New(CodeCryptoError, base)))

	assert.Equal(t, CodeCryptoError, CodeOf(err))
	assert.True(t, Is(err, CodeCryptoError))
	assert.False(t, Is(err, CodeLexError))
	assert.Equal(t, "strings", GetPass(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, 0, CodeOf(base))
	assert.False(t, Is(nil, CodeCryptoError))
}

func TestRaiseCtxKeepsKind(t *testing.T) {
	err := RaiseCtx(t.Context(), CodeIoError, New(CodeLexError, errors.New("bad")))
	require.Error(t, err)
	assert.Equal(t, CodeLexError, CodeOf(err))

	err = RaiseCtx(t.Context(), CodeIoError, errors.New("open failed"))
	assert.Equal(t, CodeIoError, CodeOf(err))

	assert.NoError(t, RaiseCtx(t.Context(), CodeIoError, nil))
}

func TestNewf(t *testing.T) {
	base := errors.New("too large")
	ce := Newf(CodeIoError, "%w: %d bytes", base, 10)
	assert.Equal(t, "io error: too large: 10 bytes", ce.Error())
	assert.ErrorIs(t, ce, base)
}

func TestRaiseCtxKeepsStack(t *testing.T) {
	ce := NewWithStack(CodePatternError, errors.New("unbalanced"))
	err := RaiseCtx(t.Context(), CodeConfigError, ce)
	assert.Same(t, ce, err)
	assert.Equal(t, CodePatternError, CodeOf(err))
	assert.NotEmpty(t, ce.Stack())
}

func TestNewWithStack(t *testing.T) {
	ce := NewWithStack(CodePatternError, errors.New("unbalanced"))
	assert.NotEmpty(t, ce.Stack())
	assert.Equal(t, "pattern error", ce.Message())
}
