// Package compiler implements a single-pass recursive-descent compiler for
// ECMAScript 5.1: source text goes in, a register-based three-address
// instruction stream comes out. No intermediate AST is built; code is
// emitted and patched on the fly while parsing.
package compiler

import (
	"io"

	"github.com/sirupsen/logrus"

	"jerboa/pkg/bytecode"
	"jerboa/pkg/errors"
	"jerboa/pkg/lit"
	"jerboa/pkg/mempool"
)

// Options configures a Compiler.
type Options struct {
	// ShowInstructions logs every serialized instruction.
	ShowInstructions bool
	// Optimize enables the local-variable-to-register promotion pass.
	Optimize bool
	// Logger receives show-instructions output. Nil discards it.
	Logger logrus.FieldLogger
}

// Compiler compiles scripts and eval bodies against a shared literal table.
// A Compiler is not safe for concurrent use; compilation is strictly
// synchronous and a second one may start only after the previous returned.
type Compiler struct {
	lits      *lit.Table
	opts      Options
	scopePool *mempool.Pool[Scope]
}

// New creates a compiler. A nil lits creates a fresh literal table.
func New(lits *lit.Table, opts Options) *Compiler {
	if lits == nil {
		lits = lit.NewTable()
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	return &Compiler{lits: lits, opts: opts, scopePool: mempool.New[Scope]()}
}

// Literals returns the table the compiler interns literals into.
func (c *Compiler) Literals() *lit.Table {
	return c.lits
}

// ParseScript compiles global code. Global code is non-strict unless it
// carries a "use strict" directive.
func (c *Compiler) ParseScript(src string) (*bytecode.Header, error) {
	header, _, err := c.compile(src, false, false)
	return header, err
}

// ParseEval compiles code passed to eval(). isStrict carries the strictness
// of the calling context. The second result reports whether any function
// declaration or expression appears in the source.
func (c *Compiler) ParseEval(src string, isStrict bool) (*bytecode.Header, bool, error) {
	return c.compile(src, true, isStrict)
}

func (c *Compiler) compile(src string, inEval, isStrict bool) (header *bytecode.Header, containsFunctions bool, err error) {
	p := &parser{
		d:         &dumper{},
		lits:      c.lits,
		scopePool: c.scopePool,
		optimize:  c.opts.Optimize,
	}
	p.d.init(c.lits)
	p.ee.lits = c.lits

	defer func() {
		// Intermediate scope trees are released before returning either way.
		c.scopePool.Reset()

		if r := recover(); r == nil {
			return
		} else if ee, ok := r.(errors.EngineError); ok {
			// Early-error unwind: drop all transient parser state.
			p.labels.removeAll()
			p.ee.reset()
			header = nil
			containsFunctions = false
			err = ee
		} else {
			panic(r)
		}
	}()

	root := p.parseProgram(src, inEval, isStrict)

	header = mergeScopesIntoBytecode(root)
	containsFunctions = root.containsFunctions

	if c.opts.ShowInstructions {
		for i, in := range header.Instrs {
			c.opts.Logger.Infof("%5d  %s", i, header.FormatInstr(i, in, c.lits))
		}
	}

	return header, containsFunctions, nil
}

// ParseScript compiles global code with a fresh compiler using the default
// options (promotion enabled).
func ParseScript(src string) (*bytecode.Header, error) {
	return New(nil, Options{Optimize: true}).ParseScript(src)
}

// ParseEval compiles eval code with a fresh compiler using the default
// options.
func ParseEval(src string, isStrict bool) (*bytecode.Header, bool, error) {
	return New(nil, Options{Optimize: true}).ParseEval(src, isStrict)
}
