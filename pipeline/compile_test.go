package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomod.pri/cobf/reserved"
)

const escapesProgram = `#include <stdio.h>
#include <string.h>

static void dump(const char* label, const char* s) {
    printf("%s %d:", label, (int)strlen(s));
    for (; *s; s++) {
        printf(" %02x", (unsigned char)*s);
    }
    printf("\n");
}

int main(void) {
    dump("hex", "\x4" "1");
    dump("oct", "\1" "2");
    dump("oct2", "\12" "3");
    dump("full", "\123" "4");
    dump("ff", "\xff" "a");
    dump("empty", "\x4" "" "1");
    dump("splice", "ab\
cd");
    dump("mixed", "tab\there \"q\" \101\x42" "é");
    return 0;
}
`

const controlProgram = `#include <stdio.h>

static int classify(int v) {
    int r = 0;
    if (v < 0) {
        r = -1;
    } else if (v == 0) {
        r = 0;
    } else {
        r = 1;
    }
    return r;
}

int main(void) {
    int total = 0;
    for (int i = -3; i <= 3; i++) {
        switch (i) {
        case 2:
            if (total > 0) { total += 10; }
            break;
        default:
            total += classify(i);
        }
        printf("%d:%d\n", i, total);
    }
    return 0;
}
`

const cppProgram = `#include <iostream>
#include <string>
#include <vector>

class Greeter {
public:
    explicit Greeter(const std::string& name) : name_(name) {}
    std::string greet(int times) const {
        std::string out;
        for (int i = 0; i < times; ++i) {
            if (i % 2 == 0) {
                out += "hi " "\x4" "1";
            } else {
                out += name_;
            }
        }
        return out;
    }
private:
    std::string name_;
};

int main() {
    std::vector<std::string> names = {"ann", "bo\
b"};
    for (const auto& n : names) {
        Greeter g(n);
        std::cout << g.greet(3).size() << " " << g.greet(2) << std::endl;
    }
    return 0;
}
`

// compiler returns the first of names found on PATH, skipping the test
// when none is installed.
func compiler(t *testing.T, names ...string) string {
	t.Helper()
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skipf("no compiler among %v", names)
	return ""
}

// build compiles src and returns the binary path, or the compiler output
// as the error.
func build(t *testing.T, cc, name, src string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(file, []byte(src), 0o600))

	bin := filepath.Join(dir, "a.out")
	var stderr bytes.Buffer
	cmd := exec.Command(cc, append(append(args, "-o", bin, file), "-lcrypto")...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w\n%s", err, stderr.String())
	}
	return bin, nil
}

func runBinary(t *testing.T, bin string) string {
	t.Helper()
	out, err := exec.Command(bin).Output()
	require.NoError(t, err)
	return string(out)
}

// requireOpenSSL skips when the emitted prelude cannot link on this host.
func requireOpenSSL(t *testing.T, cxx string) {
	t.Helper()
	const check = "#include <openssl/evp.h>\nint main() { return EVP_aes_256_cbc() == 0; }\n"
	if _, err := build(t, cxx, "check.cc", check); err != nil {
		t.Skipf("openssl development files unavailable: %v", err)
	}
}

func TestObfuscatedProgramsBehaveTheSame(t *testing.T) {
	cc := compiler(t, "cc", "gcc", "clang")
	cxx := compiler(t, "c++", "g++", "clang++")
	requireOpenSSL(t, cxx)

	tests := []struct {
		name    string
		dialect reserved.Dialect
		file    string
		src     string
	}{
		{"c escapes", reserved.DialectC, "escapes.c", escapesProgram},
		{"c control flow", reserved.DialectC, "control.c", controlProgram},
		{"cpp", reserved.DialectCPP, "greeter.cc", cppProgram},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := cc
			if tt.dialect == reserved.DialectCPP {
				orig = cxx
			}
			bin, err := build(t, orig, tt.file, tt.src)
			require.NoError(t, err)
			want := runBinary(t, bin)

			opts := DefaultOptions()
			opts.Dialect = tt.dialect
			opts.Seed = 11
			opts.AntiDebug = false
			res, err := Run(context.Background(), tt.src, opts)
			require.NoError(t, err)
			require.NotZero(t, res.Stats.StringsEncrypted)

			// string declarations are dynamic initializers, valid in C++ only
			bin, err = build(t, cxx, tt.file, res.Output, "-x", "c++")
			require.NoError(t, err, res.Output)
			assert.Equal(t, want, runBinary(t, bin))
		})
	}
}

func TestAntiDebugPreludeCompiles(t *testing.T) {
	cxx := compiler(t, "c++", "g++", "clang++")
	requireOpenSSL(t, cxx)

	for _, d := range []reserved.Dialect{reserved.DialectC, reserved.DialectCPP} {
		t.Run(d.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Dialect = d
			res, err := Run(context.Background(), controlProgram, opts)
			require.NoError(t, err)
			require.True(t, res.Stats.AntiDebugInjected)

			_, err = build(t, cxx, "main.cc", res.Output, "-x", "c++")
			require.NoError(t, err, res.Output)
		})
	}
}
