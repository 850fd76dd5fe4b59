package inject

import (
	"gomod.pri/cobf/lexer"
	"gomod.pri/cobf/reserved"
)

const cAntiDebugPrelude = `/* anti-debugging */
#include <stdlib.h>
#include <time.h>
#ifdef _WIN32
#include <windows.h>
#else
#include <sys/types.h>
#include <sys/ptrace.h>
#endif

static void anti_debug_check(void) {
#ifdef _WIN32
    if (IsDebuggerPresent()) {
        exit(1);
    }
#else
    if (ptrace(PTRACE_TRACEME, 0, 0, 0) == -1) {
        exit(1);
    }
#endif
    clock_t start = clock();
    volatile int dummy = 0;
    for (int i = 0; i < 1000; i++) {
        dummy++;
    }
    if ((double)(clock() - start) / CLOCKS_PER_SEC > 0.01) {
        exit(1);
    }
}

`

const cppAntiDebugPrelude = `// anti-debugging
#include <chrono>
#include <cstdlib>
#ifdef _WIN32
#include <windows.h>
#else
#include <sys/types.h>
#include <sys/ptrace.h>
#endif

class AntiDebug {
public:
    static void check() {
#ifdef _WIN32
        if (IsDebuggerPresent()) {
            std::exit(1);
        }
        BOOL remote = FALSE;
        CheckRemoteDebuggerPresent(GetCurrentProcess(), &remote);
        if (remote) {
            std::exit(1);
        }
#else
        if (ptrace(PTRACE_TRACEME, 0, 0, 0) == -1) {
            std::exit(1);
        }
#endif
        auto start = std::chrono::steady_clock::now();
        volatile int dummy = 0;
        for (int i = 0; i < 1000; ++i) {
            dummy += i;
        }
        auto elapsed = std::chrono::duration_cast<std::chrono::microseconds>(std::chrono::steady_clock::now() - start);
        if (elapsed.count() > 10000) {
            std::exit(1);
        }
    }
};

`

// AntiDebugPrelude defines anti_debug_check (C) or AntiDebug::check (C++).
func AntiDebugPrelude(d reserved.Dialect) string {
	if d == reserved.DialectCPP {
		return cppAntiDebugPrelude
	}
	return cAntiDebugPrelude
}

// AntiDebugCall is the statement spliced at the entry of main.
func AntiDebugCall(d reserved.Dialect) string {
	if d == reserved.DialectCPP {
		return "AntiDebug::check();"
	}
	return "anti_debug_check();"
}

// AntiDebug splices the check call as the first statement of
// int main(...). It reports false, without error, when there is no main.
func AntiDebug(tokens []lexer.Token, d reserved.Dialect, reg Registry) ([]lexer.Token, bool, error) {
	at := mainBodyOpen(tokens)
	if at < 0 {
		return tokens, false, nil
	}
	frag, err := fragment([]string{AntiDebugCall(d)}, lexer.LineEnding(tokens), reg)
	if err != nil {
		return nil, false, err
	}
	return lexer.Splice(tokens, at+1, at+1, frag), true, nil
}

// mainBodyOpen returns the index of the '{' of int main(...) { or -1.
func mainBodyOpen(tokens []lexer.Token) int {
	for i, t := range tokens {
		if !t.IsKeyword("int") {
			continue
		}
		name := lexer.NextSignificant(tokens, i)
		if name < 0 || !tokens[name].Is(lexer.KindIdent, "main") {
			continue
		}
		open := lexer.NextSignificant(tokens, name)
		if open < 0 || !tokens[open].IsPunct("(") {
			continue
		}
		end := lexer.MatchClose(tokens, open)
		if end < 0 {
			return -1
		}
		body := lexer.NextSignificant(tokens, end)
		if body >= 0 && tokens[body].IsPunct("{") {
			return body
		}
	}
	return -1
}
