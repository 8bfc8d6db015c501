// jerboac compiles ECMAScript 5.1 sources to jerboa bytecode and prints the
// resulting instruction listing.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"jerboa/pkg/bytecode"
	"jerboa/pkg/compiler"
	"jerboa/pkg/errors"
	"jerboa/pkg/lit"
	"jerboa/pkg/source"
)

type rootFlags struct {
	showInstructions bool
	evalMode         bool
	strict           bool
	noOptimize       bool
	verbose          bool
}

func main() {
	fs := afero.NewOsFs()
	logger := logrus.New()

	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "jerboac [flags] file.js",
		Short: "Compile ECMAScript 5.1 source to jerboa bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if flags.verbose {
				logger.SetLevel(logrus.DebugLevel)
			}

			data, err := afero.ReadFile(fs, args[0])
			if err != nil {
				return err
			}
			src := source.FromFile(args[0], string(data))

			return run(cmd, flags, logger, src)
		},
	}

	root.Flags().BoolVar(&flags.showInstructions, "show-instructions", false,
		"log every emitted instruction through the logger")
	root.Flags().BoolVar(&flags.evalMode, "eval", false,
		"compile the input as eval code instead of global code")
	root.Flags().BoolVar(&flags.strict, "strict", false,
		"with --eval, compile as if called from strict code")
	root.Flags().BoolVar(&flags.noOptimize, "no-optimize", false,
		"disable the local-variable-to-register promotion pass")
	root.Flags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"enable debug logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, flags *rootFlags, logger *logrus.Logger, src *source.SourceFile) error {
	lits := lit.NewTable()
	c := compiler.New(lits, compiler.Options{
		ShowInstructions: flags.showInstructions,
		Optimize:         !flags.noOptimize,
		Logger:           logger,
	})

	var (
		header            *bytecode.Header
		containsFunctions bool
		err               error
	)
	if flags.evalMode {
		header, containsFunctions, err = c.ParseEval(src.Content, flags.strict)
	} else {
		header, err = c.ParseScript(src.Content)
	}
	if err != nil {
		if ee, ok := err.(errors.EngineError); ok {
			errors.DisplayError(cmd.ErrOrStderr(), src.Content, ee)
			return fmt.Errorf("%s error in %s", ee.Kind(), src.DisplayPath())
		}
		return err
	}

	logger.WithFields(logrus.Fields{
		"instructions": len(header.Instrs),
		"literals":     lits.Len(),
	}).Debug("compiled")

	printListing(cmd, flags, header, lits, src, containsFunctions)
	return nil
}

func printListing(cmd *cobra.Command, flags *rootFlags, header *bytecode.Header,
	lits *lit.Table, src *source.SourceFile, containsFunctions bool) {

	out := cmd.OutOrStdout()
	heading := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)

	heading.Fprintf(out, "%s: %d instructions\n", src.DisplayPath(), len(header.Instrs))
	if flags.evalMode {
		dim.Fprintf(out, "eval code; contains functions: %v\n", containsFunctions)
	}
	dim.Fprintf(out, "scope flags: %08b\n", uint8(header.ScopeFlags))

	for i, in := range header.Instrs {
		fmt.Fprintf(out, "%5d  %s\n", i, header.FormatInstr(i, in, lits))
	}
}
