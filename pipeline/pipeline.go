// Package pipeline composes the transform passes over one translation unit:
// string encryption, control flow, dead code, anti-debug, then renaming.
package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/zeromicro/go-zero/core/logc"
	"github.com/zeromicro/go-zero/core/logx"

	"gomod.pri/cobf/confuse"
	"gomod.pri/cobf/ctrlflow"
	"gomod.pri/cobf/inject"
	"gomod.pri/cobf/lexer"
	"gomod.pri/cobf/reserved"
	"gomod.pri/cobf/snowflake"
	"gomod.pri/cobf/strcrypt"
	"gomod.pri/cobf/xerror"
	"gomod.pri/cobf/xtrace"
)

// MaxInputSize is the largest accepted translation unit.
const MaxInputSize = 1 << 20

var ErrInputTooLarge = errors.New("input exceeds 1 MiB")

// Pass names as they appear in spans, logs and PassError.
const (
	PassLex       = "lex"
	PassStrings   = "strings"
	PassControl   = "control-flow"
	PassDeadCode  = "dead-code"
	PassAntiDebug = "anti-debug"
	PassRename    = "rename"
)

type Stats struct {
	Tokens             int
	StringsEncrypted   int
	IfsRewritten       int
	DeadCodeInjected   int
	AntiDebugInjected  bool
	IdentifiersRenamed int
}

// Result is the output of one run with the tables it built.
type Result struct {
	RunID       string
	TraceID     string
	Output      string
	Identifiers []confuse.Entry
	Strings     []strcrypt.Record
	Stats       Stats
}

type run struct {
	opts   Options
	oracle *reserved.Oracle
	rng    *rand.Rand
	gen    *confuse.NameGenerator
	tokens []lexer.Token
	table  *strcrypt.Table
	cipher *strcrypt.Cipher
	stats  Stats
}

// Run transforms src. Any error aborts the run; no partial output is returned.
func Run(ctx context.Context, src string, opts Options) (*Result, error) {
	if len(src) > MaxInputSize {
		return nil, xerror.Newf(xerror.CodeIoError, "%w: %d bytes", ErrInputTooLarge, len(src))
	}

	runID := snowflake.RunID()
	ctx = logx.ContextWithFields(ctx, logx.Field("run", runID))
	ctx, span := xtrace.StartPass(ctx, "run",
		xtrace.AttrDialect.String(opts.Dialect.String()),
		xtrace.AttrRunID.String(runID),
	)
	traceID := xtrace.TraceID(ctx)
	ctx = logx.ContextWithFields(ctx, logx.Field("trace", traceID))

	oracle := reserved.NewOracle(opts.Dialect)
	rng := confuse.NewRand(opts.Seed)
	r := &run{
		opts:   opts,
		oracle: oracle,
		rng:    rng,
		gen:    confuse.NewNameGenerator(rng, oracle),
	}

	res, err := r.execute(ctx, src)
	if err != nil {
		xtrace.EndPass(span, len(r.tokens), 0, err)
		return nil, err
	}
	res.RunID, res.TraceID = runID, traceID
	xtrace.EndPass(span, len(r.tokens), 0, nil)

	return res, nil
}

func (r *run) execute(ctx context.Context, src string) (*Result, error) {
	if err := r.step(ctx, PassLex, true, r.lex(src)); err != nil {
		return nil, err
	}

	steps := []struct {
		name    string
		enabled bool
		fn      func() (int, error)
	}{
		{PassStrings, r.opts.StringEncrypt, r.encryptStrings},
		{PassControl, r.opts.ControlFlow, r.rewriteControlFlow},
		{PassDeadCode, r.opts.DeadCode, r.injectDeadCode},
		{PassAntiDebug, r.opts.AntiDebug, r.injectAntiDebug},
	}
	for _, s := range steps {
		if err := r.step(ctx, s.name, s.enabled, s.fn); err != nil {
			return nil, err
		}
	}

	symtab := confuse.NewSymbolTable(r.gen, r.oracle)
	err := r.step(ctx, PassRename, r.opts.Identifiers, func() (int, error) {
		n, err := symtab.Rename(r.tokens)
		r.stats.IdentifiersRenamed = n
		return n, err
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Output:      r.serialize(),
		Identifiers: symtab.Entries(),
		Strings:     r.table.Records(),
		Stats:       r.stats,
	}, nil
}

// step runs one pass inside its span and tags its error with the pass name.
func (r *run) step(ctx context.Context, name string, enabled bool, fn func() (int, error)) error {
	if !enabled {
		logc.Debugw(ctx, "pass skipped", logx.Field("pass", name))
		return nil
	}

	_, span := xtrace.StartPass(ctx, name)
	changes, err := fn()
	xtrace.EndPass(span, len(r.tokens), changes, err)
	if err != nil {
		return xerror.WrapPassError(name, err)
	}

	logc.Debugw(ctx, "pass done",
		logx.Field("pass", name),
		logx.Field("tokens", len(r.tokens)),
		logx.Field("changes", changes),
	)
	return nil
}

func (r *run) lex(src string) func() (int, error) {
	return func() (int, error) {
		tokens, err := lexer.Tokenize(src, r.oracle)
		if err != nil {
			return 0, err
		}
		r.tokens = tokens
		r.stats.Tokens = len(tokens)

		r.oracle.Preserve("main")
		for _, t := range tokens {
			switch t.Kind {
			case lexer.KindPreproc:
				// directives are opaque to renaming
				r.oracle.Preserve(lexer.DirectiveIdents(t.Lexeme)...)
			case lexer.KindIdent:
				r.gen.Reserve(t.Lexeme)
			}
		}
		return len(tokens), nil
	}
}

func (r *run) encryptStrings() (int, error) {
	c, err := strcrypt.NewCipher(r.opts.Key, r.opts.entropy())
	if err != nil {
		return 0, err
	}
	tokens, table, err := strcrypt.Rewrite(r.tokens, c, r.oracle)
	if err != nil {
		return 0, err
	}
	r.tokens, r.table, r.cipher = tokens, table, c
	r.stats.StringsEncrypted = table.Len()
	return table.Len(), nil
}

func (r *run) rewriteControlFlow() (int, error) {
	tokens, n, err := ctrlflow.Rewrite(r.tokens, r.gen, r.oracle)
	if err != nil {
		return 0, err
	}
	r.tokens = tokens
	r.stats.IfsRewritten = n
	return n, nil
}

func (r *run) injectDeadCode() (int, error) {
	tokens, n, err := inject.DeadCode(r.tokens, r.opts.Dialect, r.rng, r.oracle, r.opts.DeadCodeBudget)
	if err != nil {
		return 0, err
	}
	r.tokens = tokens
	r.stats.DeadCodeInjected = n
	return n, nil
}

func (r *run) injectAntiDebug() (int, error) {
	r.oracle.Preserve("anti_debug_check", "AntiDebug", "check")
	tokens, found, err := inject.AntiDebug(r.tokens, r.opts.Dialect, r.oracle)
	if err != nil {
		return 0, err
	}
	r.tokens = tokens
	r.stats.AntiDebugInjected = found
	if found {
		return 1, nil
	}
	return 0, nil
}

// serialize prepends the prelude fragments in the input's line-ending
// convention and concatenates the stream.
func (r *run) serialize() string {
	d := r.opts.Dialect

	var prelude strings.Builder
	if r.opts.AntiDebug {
		prelude.WriteString(inject.AntiDebugPrelude(d))
	}
	if r.stats.DeadCodeInjected > 0 {
		prelude.WriteString(inject.DeadCodeHeaders(d))
	}
	if r.table.Len() > 0 {
		key := r.cipher.Key()
		prelude.WriteString(strcrypt.DecryptPrelude(d))
		prelude.WriteString(strcrypt.Declarations(d, r.table, key[:]))
	}

	eol := lexer.LineEnding(r.tokens)
	return lexer.WithLineEnding(prelude.String(), eol) + lexer.Concat(r.tokens)
}
