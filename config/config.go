// Package config loads run settings from an optional file and turns them
// into pipeline options.
package config

import (
	"github.com/zeromicro/go-zero/core/conf"

	"gomod.pri/cobf/pipeline"
	"gomod.pri/cobf/reserved"
	"gomod.pri/cobf/xerror"
	"gomod.pri/cobf/xutils/logutil"
)

type Config struct {
	// Dialect is c or cpp; empty infers it from the input file extension.
	Dialect string `json:",optional" label:"Dialect" validate:"omitempty,oneof=c cpp c++ cxx"`
	Key     string `json:",default=default_encryption_key_32_chars_"`
	Seed    string `json:",default=0" label:"Seed" validate:"seed"`

	StringEncrypt  bool `json:",default=true"`
	ControlFlow    bool `json:",default=true"`
	DeadCode       bool `json:",default=true"`
	DeadCodeBudget int  `json:",default=4" label:"DeadCodeBudget" validate:"min=0,max=64"`
	AntiDebug      bool `json:",default=true"`
	Identifiers    bool `json:",default=true"`

	// DeterministicIV derives string IVs from Seed so output is reproducible.
	DeterministicIV bool `json:",default=false"`

	Log logutil.Config
}

// Load reads a yaml, json or toml file chosen by extension and validates it.
func Load(path string) (*Config, error) {
	var c Config
	if err := conf.Load(path, &c); err != nil {
		return nil, xerror.New(xerror.CodeConfigError, err)
	}
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	if err := conf.FillDefault(&c); err != nil {
		panic(err)
	}
	return &c
}

// Options converts c for a run on the file at path.
func (c *Config) Options(path string) (pipeline.Options, error) {
	if err := Validate(c); err != nil {
		return pipeline.Options{}, err
	}

	d := reserved.DialectForPath(path)
	if c.Dialect != "" {
		var err error
		if d, err = reserved.ParseDialect(c.Dialect); err != nil {
			return pipeline.Options{}, xerror.New(xerror.CodeConfigError, err)
		}
	}

	seed, err := ParseSeed(c.Seed)
	if err != nil {
		return pipeline.Options{}, xerror.New(xerror.CodeConfigError, err)
	}

	return pipeline.Options{
		Dialect:         d,
		Key:             []byte(c.Key),
		StringEncrypt:   c.StringEncrypt,
		ControlFlow:     c.ControlFlow,
		DeadCode:        c.DeadCode,
		DeadCodeBudget:  c.DeadCodeBudget,
		AntiDebug:       c.AntiDebug,
		Identifiers:     c.Identifiers,
		Seed:            seed,
		DeterministicIV: c.DeterministicIV,
	}, nil
}
