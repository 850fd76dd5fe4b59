package pipeline

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"gomod.pri/cobf/confuse"
	"gomod.pri/cobf/inject"
	"gomod.pri/cobf/reserved"
	"gomod.pri/cobf/strcrypt"
	"gomod.pri/cobf/xerror"
)

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

type failReader struct{}

func (failReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy unavailable")
}

func options(d reserved.Dialect) Options {
	opts := DefaultOptions()
	opts.Dialect = d
	opts.Entropy = zeroReader{}
	return opts
}

func images(entries []confuse.Entry) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Original] = e.Obfuscated
	}
	return m
}

func TestMainGetsAntiDebugCall(t *testing.T) {
	res, err := Run(context.Background(), "int main(void){return 0;}", options(reserved.DialectC))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Output, inject.AntiDebugPrelude(reserved.DialectC)))
	assert.Contains(t, res.Output, "static void anti_debug_check(void)")
	assert.Regexp(t, `int main\(void\)\{\s*anti_debug_check\(\);`, res.Output)
	assert.Contains(t, res.Output, "return 0;}")
	assert.Empty(t, res.Identifiers)
	assert.True(t, res.Stats.AntiDebugInjected)
	assert.Equal(t, 1, res.Stats.DeadCodeInjected)
	assert.NotEmpty(t, res.RunID)
}

func TestStringLiteralBecomesDeclaration(t *testing.T) {
	res, err := Run(context.Background(), `const char* s = "hello";`, options(reserved.DialectC))
	require.NoError(t, err)

	assert.Contains(t, res.Output, strcrypt.DecryptPrelude(reserved.DialectC))
	assert.Regexp(t, `static char\* _str_0 = _decrypt_str\("[A-Za-z0-9+/=]+", "`+strcrypt.DefaultKey+`"\);`, res.Output)

	img := images(res.Identifiers)
	require.Contains(t, img, "s")
	assert.True(t, strings.HasSuffix(res.Output, "const char* "+img["s"]+" = _str_0;"))

	require.Len(t, res.Strings, 1)
	assert.Equal(t, "hello", res.Strings[0].Original)
}

func TestIfBecomesSwitch(t *testing.T) {
	res, err := Run(context.Background(), `if (x > 0) { y = 1; } else { y = 2; }`, options(reserved.DialectC))
	require.NoError(t, err)

	img := images(res.Identifiers)
	require.Contains(t, img, "x")
	require.Contains(t, img, "y")

	re := regexp.MustCompile(`int (_sw\d+) = \(` + img["x"] + ` > 0\) \? 1 : 0; switch \((_sw\d+)\) \{ case 1: ` +
		img["y"] + ` = 1; break; default: ` + img["y"] + ` = 2; break; \}`)
	m := re.FindStringSubmatch(res.Output)
	require.NotNil(t, m, res.Output)
	assert.Equal(t, m[1], m[2])
	assert.NotContains(t, img, m[1])
	assert.Equal(t, 1, res.Stats.IfsRewritten)
}

func TestCommentIsInert(t *testing.T) {
	res, err := Run(context.Background(), `/* "not a string" */ int a;`, options(reserved.DialectC))
	require.NoError(t, err)

	assert.Contains(t, res.Output, `/* "not a string" */ int `)
	assert.Empty(t, res.Strings)
	require.Len(t, res.Identifiers, 1)
	assert.Equal(t, "a", res.Identifiers[0].Original)
}

func TestEscapesArePreserved(t *testing.T) {
	res, err := Run(context.Background(), `"line1\nline2"`, options(reserved.DialectC))
	require.NoError(t, err)

	require.Len(t, res.Strings, 1)
	rec := res.Strings[0]
	assert.Equal(t, `line1\nline2`, rec.Original)
	assert.Equal(t, "_str_0", rec.VarName)
	assert.True(t, strings.HasSuffix(res.Output, "_str_0"))
}

func TestClassNamesAreRenamed(t *testing.T) {
	res, err := Run(context.Background(), `class Foo { void bar(); };`, options(reserved.DialectCPP))
	require.NoError(t, err)

	img := images(res.Identifiers)
	require.Contains(t, img, "Foo")
	require.Contains(t, img, "bar")
	assert.True(t, strings.HasSuffix(res.Output, "class "+img["Foo"]+" { void "+img["bar"]+"(); };"))
	assert.Contains(t, res.Output, "class AntiDebug")
}

func TestDeterministic(t *testing.T) {
	src := `#include <stdio.h>
static int counter = 0;

int bump(int by) {
    if (by > 0) { counter += by; } else { counter -= 1; }
    return counter;
}

int main(void) {
    printf("%d\n", bump(2));
    return 0;
}
`
	a, err := Run(context.Background(), src, options(reserved.DialectC))
	require.NoError(t, err)
	b, err := Run(context.Background(), src, options(reserved.DialectC))
	require.NoError(t, err)
	assert.Equal(t, a.Output, b.Output)

	opts := options(reserved.DialectC)
	opts.Seed = 99
	c, err := Run(context.Background(), src, opts)
	require.NoError(t, err)
	assert.NotEqual(t, a.Output, c.Output)
}

func TestDeterministicIV(t *testing.T) {
	src := `int main(void) { puts("hi"); return 0; }`
	opts := DefaultOptions()
	opts.Seed = 5
	opts.DeterministicIV = true

	a, err := Run(context.Background(), src, opts)
	require.NoError(t, err)
	b, err := Run(context.Background(), src, opts)
	require.NoError(t, err)
	assert.Equal(t, a.Output, b.Output)

	opts.Seed = 6
	c, err := Run(context.Background(), src, opts)
	require.NoError(t, err)
	assert.NotEqual(t, a.Strings[0].EncryptedB64, c.Strings[0].EncryptedB64)

	opts.Entropy = zeroReader{}
	d, err := Run(context.Background(), src, opts)
	require.NoError(t, err)
	assert.NotEqual(t, c.Strings[0].EncryptedB64, d.Strings[0].EncryptedB64)
}

func TestPreservedAndKeywords(t *testing.T) {
	src := `#include <stdio.h>
#define SQUARE(v) ((v) * (v))
typedef struct point { int px; int py; } point_t;
int area(point_t p) { return SQUARE(p.px) + p.py; }
int main(void) { printf("%d", area((point_t){1, 2})); return 0; }
`
	res, err := Run(context.Background(), src, options(reserved.DialectC))
	require.NoError(t, err)

	img := images(res.Identifiers)
	for _, name := range []string{"main", "printf", "SQUARE", "v", "typedef", "struct", "int", "return"} {
		assert.NotContains(t, img, name)
	}
	assert.Contains(t, res.Output, "#define SQUARE(v) ((v) * (v))")
	assert.Regexp(t, `SQUARE\(\w+\.\w+\)`, res.Output)

	for _, e := range res.Identifiers {
		assert.False(t, reserved.IsKeyword(e.Obfuscated, reserved.DialectC), e.Obfuscated)
		assert.False(t, reserved.IsPreserved(e.Obfuscated, reserved.DialectC), e.Obfuscated)
		assert.NotContains(t, src, e.Obfuscated)
	}
	assert.Len(t, distinct(res.Identifiers), len(res.Identifiers))
}

func distinct(entries []confuse.Entry) map[string]struct{} {
	m := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		m[e.Obfuscated] = struct{}{}
	}
	return m
}

func TestStringRoundTrip(t *testing.T) {
	src := `const char* a = "plain"; const char* b = "tab\there"; const char* c = "x" "y";`
	res, err := Run(context.Background(), src, options(reserved.DialectC))
	require.NoError(t, err)

	require.Len(t, res.Strings, 3)
	for _, rec := range res.Strings {
		pt, err := strcrypt.Decrypt(rec.EncryptedB64, []byte(strcrypt.DefaultKey))
		require.NoError(t, err)
		assert.Equal(t, rec.Original, string(pt))
	}
	assert.Equal(t, "xy", res.Strings[2].Original)
}

func TestLiteralsAreInert(t *testing.T) {
	opts := options(reserved.DialectC)
	opts.StringEncrypt = false
	src := `char c = 'x'; const char* s = "counter if (a) { }"; int counter;`

	res, err := Run(context.Background(), src, opts)
	require.NoError(t, err)
	assert.Contains(t, res.Output, `'x'`)
	assert.Contains(t, res.Output, `"counter if (a) { }"`)
	assert.Zero(t, res.Stats.IfsRewritten)
}

func TestAllPassesOffIsIdentity(t *testing.T) {
	src := "/* header */\n#include <stdio.h>\nint main(void) {\r\n  if (1) { puts(\"x\"); }\n  return 0;\n}\n"
	res, err := Run(context.Background(), src, Options{Dialect: reserved.DialectC})
	require.NoError(t, err)
	assert.Equal(t, src, res.Output)
}

func TestCRLFPrelude(t *testing.T) {
	src := "int main(void)\r\n{\r\n    puts(\"hi\");\r\n    return 0;\r\n}\r\n"
	res, err := Run(context.Background(), src, options(reserved.DialectC))
	require.NoError(t, err)

	assert.NotRegexp(t, `[^\r]\n`, res.Output)
	assert.Contains(t, res.Output, "\r\n")
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts func(*Options)
		code int
		pass string
		is   error
	}{
		{
			name: "too large",
			src:  strings.Repeat("a", MaxInputSize+1),
			code: xerror.CodeIoError,
			is:   ErrInputTooLarge,
		},
		{
			name: "unterminated string",
			src:  `char* s = "abc`,
			code: xerror.CodeLexError,
			pass: PassLex,
		},
		{
			name: "unterminated comment",
			src:  "int a; /* open",
			code: xerror.CodeLexError,
			pass: PassLex,
		},
		{
			name: "unbalanced if",
			src:  "void f(void) { if (a { } }",
			code: xerror.CodePatternError,
			pass: PassControl,
		},
		{
			name: "entropy failure",
			src:  `const char* s = "x";`,
			opts: func(o *Options) { o.Entropy = failReader{} },
			code: xerror.CodeCryptoError,
			pass: PassStrings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := options(reserved.DialectC)
			if tt.opts != nil {
				tt.opts(&opts)
			}
			res, err := Run(context.Background(), tt.src, opts)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.code, xerror.CodeOf(err))
			assert.Equal(t, tt.pass, xerror.GetPass(err))
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestPassSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	res, err := Run(context.Background(), "int main(void){return 0;}", options(reserved.DialectC))
	require.NoError(t, err)

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
		assert.Equal(t, res.TraceID, s.SpanContext().TraceID().String())
	}
	assert.Equal(t, []string{
		"pass/lex", "pass/strings", "pass/control-flow", "pass/dead-code",
		"pass/anti-debug", "pass/rename", "pass/run",
	}, names)
}
