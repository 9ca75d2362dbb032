// Command formc analyzes finite element forms described in HCL and emits a
// C++ translation unit with their dof maps and integral code, or a LaTeX
// rendering of the integrals.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/notargets/formc/analysis"
	"github.com/notargets/formc/builder"
	"github.com/notargets/formc/config"
	"github.com/notargets/formc/dofmap"
	"github.com/notargets/formc/element"
	"github.com/notargets/formc/form"
	"github.com/notargets/formc/format"
	"github.com/notargets/formc/graphgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	params    string
	forms     string
	output    string
	latex     bool
	single    bool
	prefix    string
	logLevel  string
	logFormat string
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	flagSet := flag.NewFlagSet("formc", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
formc - finite element form compiler.

Usage:
  formc [options] FORMS_FILE

Options:
`)
		flagSet.PrintDefaults()
	}

	o := &options{}
	flagSet.StringVar(&o.params, "params", "", "Path to an HCL parameters file.")
	flagSet.StringVar(&o.forms, "forms", "", "Path to the HCL form description.")
	flagSet.StringVar(&o.output, "o", "", "Output file. Defaults to stdout.")
	flagSet.BoolVar(&o.latex, "latex", false, "Emit a LaTeX rendering of the integrals instead of C++.")
	flagSet.BoolVar(&o.single, "float32", false, "Use single precision for real_t and static tables.")
	flagSet.StringVar(&o.prefix, "prefix", "", "Prefix for generated function names.")
	flagSet.StringVar(&o.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.StringVar(&o.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if o.forms == "" && flagSet.NArg() > 0 {
		o.forms = flagSet.Arg(0)
	}
	if o.forms == "" {
		flagSet.Usage()
		return nil, fmt.Errorf("no form description given")
	}
	return o, nil
}

func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(formatStr) == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}
	return slog.New(handler)
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	logger := newLogger(o.logLevel, o.logFormat, stderr)

	params := form.DefaultParameters()
	if o.params != "" {
		if params, err = config.LoadParameters(o.params); err != nil {
			return err
		}
	}
	desc, err := config.LoadForms(o.forms)
	if err != nil {
		return err
	}
	logger.Debug("loaded form description", "path", o.forms, "elements", len(desc.Elements), "forms", len(desc.Forms))

	an := analysis.NewAnalyzer(logger)
	var res *analysis.Result
	if len(desc.Forms) > 0 {
		res, err = an.AnalyzeForms(desc.Forms, params)
	} else {
		res, err = an.AnalyzeElements(desc.Elements)
	}
	if err != nil {
		return err
	}

	var out string
	if o.latex {
		out, err = renderLaTeX(res)
	} else {
		out, err = renderUnit(res, o)
	}
	if err != nil {
		return err
	}

	if o.output == "" {
		_, err = io.WriteString(stdout, out)
		return err
	}
	if err := os.WriteFile(o.output, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", o.output, err)
	}
	logger.Info("wrote output", "path", o.output, "forms", len(res.Forms), "elements", len(res.Elements))
	return nil
}

func renderLaTeX(res *analysis.Result) (string, error) {
	rules := format.LaTeX{}
	g := graphgen.New(rules)
	var sb strings.Builder
	for _, f := range res.Forms {
		fc, err := g.CompileForm(f.Data)
		if err != nil {
			return "", fmt.Errorf("compiling form %s: %w", f.Name, err)
		}
		sb.WriteString(rules.Document(fc.Lines(rules)))
	}
	return sb.String(), nil
}

func renderUnit(res *analysis.Result, o *options) (string, error) {
	cfg := builder.Config{Prefix: o.prefix}
	if o.single {
		cfg.FloatType = builder.Float32
	}
	b := builder.New(cfg)
	rules := b.Rules()

	for id, e := range res.Elements {
		lay, err := element.NewLayout(e)
		if err != nil {
			return "", fmt.Errorf("element %d: %w", id, err)
		}
		code, err := dofmap.Generate(lay, rules)
		if err != nil {
			return "", fmt.Errorf("dof map for element %d: %w", id, err)
		}
		b.AddDofMap(fmt.Sprintf("dofmap_%d", id), code)
		b.AddReferenceCoordinates(fmt.Sprintf("dof_coordinates_%d", id), lay)
	}

	g := graphgen.New(rules)
	for _, f := range res.Forms {
		fc, err := g.CompileForm(f.Data)
		if err != nil {
			return "", fmt.Errorf("compiling form %s: %w", f.Name, err)
		}
		b.AddForm(fc)
	}
	return b.Generate(), nil
}
