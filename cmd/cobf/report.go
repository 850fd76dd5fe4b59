package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"gomod.pri/cobf/pipeline"
	"gomod.pri/cobf/reserved"
	"gomod.pri/cobf/xerror"
)

type report struct {
	RunID       string          `yaml:"run_id"`
	Dialect     string          `yaml:"dialect"`
	Identifiers []identifierRow `yaml:"identifiers"`
	Strings     []stringRow     `yaml:"strings"`
	Stats       statsRow        `yaml:"stats"`
}

type identifierRow struct {
	Original   string `yaml:"original"`
	Obfuscated string `yaml:"obfuscated"`
}

// stringRow carries neither ciphertext nor key.
type stringRow struct {
	Index    int    `yaml:"index"`
	VarName  string `yaml:"var"`
	Original string `yaml:"original"`
}

type statsRow struct {
	Tokens             int  `yaml:"tokens"`
	StringsEncrypted   int  `yaml:"strings_encrypted"`
	IfsRewritten       int  `yaml:"ifs_rewritten"`
	DeadCodeInjected   int  `yaml:"dead_code_injected"`
	AntiDebugInjected  bool `yaml:"anti_debug_injected"`
	IdentifiersRenamed int  `yaml:"identifiers_renamed"`
}

func newReport(d reserved.Dialect, res *pipeline.Result) report {
	r := report{
		RunID:       res.RunID,
		Dialect:     d.String(),
		Identifiers: make([]identifierRow, 0, len(res.Identifiers)),
		Strings:     make([]stringRow, 0, len(res.Strings)),
		Stats:       statsRow(res.Stats),
	}
	for _, e := range res.Identifiers {
		r.Identifiers = append(r.Identifiers, identifierRow{Original: e.Original, Obfuscated: e.Obfuscated})
	}
	for _, s := range res.Strings {
		r.Strings = append(r.Strings, stringRow{Index: s.Index, VarName: s.VarName, Original: s.Original})
	}
	return r
}

func writeReport(path string, d reserved.Dialect, res *pipeline.Result) error {
	b, err := yaml.Marshal(newReport(d, res))
	if err != nil {
		return xerror.New(xerror.CodeIoError, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return xerror.New(xerror.CodeIoError, err)
	}
	return nil
}
