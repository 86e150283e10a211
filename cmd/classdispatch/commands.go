package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/chazu/classdispatch/catalog"
	"github.com/chazu/classdispatch/dispatch"
	"github.com/chazu/classdispatch/manifest"
	"github.com/chazu/classdispatch/trace"
)

const (
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// app wires a manifest into a resolver with a trace recorder attached.
type app struct {
	manifest *manifest.Manifest
	resolver *dispatch.Resolver
	recorder *trace.Recorder
	out      io.Writer
	color    bool
}

func loadApp(dir string, out io.Writer) (*app, error) {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("no %s found in %s or its parents", manifest.FileName, dir)
	}

	rec := trace.NewRecorder()
	r := dispatch.New(dispatch.WithObserver(rec))
	if err := m.Apply(r); err != nil {
		return nil, fmt.Errorf("applying manifest: %w", err)
	}

	return &app{manifest: m, resolver: r, recorder: rec, out: out}, nil
}

func (a *app) runCommand(name string, args []string) error {
	switch name {
	case "run":
		return a.handleRunCommand(args)
	case "explain":
		return a.handleExplainCommand(args)
	case "methods":
		return a.handleMethodsCommand(args)
	case "export":
		return a.handleExportCommand(args)
	case "trace":
		return a.handleTraceCommand(args)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

// target resolves the <generic> <object> pair most commands take.
func (a *app) target(cmd string, args []string) (string, *dispatch.Object, error) {
	if len(args) < 2 {
		return "", nil, fmt.Errorf("usage: classdispatch %s <generic> <object>", cmd)
	}
	obj, err := a.manifest.Object(args[1])
	if err != nil {
		return "", nil, err
	}
	return args[0], obj, nil
}

// handleRunCommand processes `classdispatch run`. Extra arguments are
// forwarded to the method as positional strings.
func (a *app) handleRunCommand(args []string) error {
	generic, obj, err := a.target("run", args)
	if err != nil {
		return err
	}

	call := &dispatch.Args{}
	for _, s := range args[2:] {
		call.Positional = append(call.Positional, s)
	}

	result, err := a.resolver.Dispatch(context.Background(), generic, obj, call)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, result)
	return nil
}

// handleExplainCommand processes `classdispatch explain`.
func (a *app) handleExplainCommand(args []string) error {
	generic, obj, err := a.target("explain", args)
	if err != nil {
		return err
	}

	res, err := a.resolver.Resolve(generic, obj)
	if err != nil {
		return err
	}

	for _, line := range strings.SplitAfter(res.String(), "\n") {
		if line == "" {
			continue
		}
		if a.color && strings.HasPrefix(line, "=>") {
			line = ansiBold + strings.TrimSuffix(line, "\n") + ansiReset + "\n"
		}
		io.WriteString(a.out, line)
	}
	if res.Selected < 0 {
		fmt.Fprintf(a.out, "no applicable method for '%s' applied to an object of class %s\n",
			generic, res.Classes)
	}
	return nil
}

// handleMethodsCommand processes `classdispatch methods [generic]`.
func (a *app) handleMethodsCommand(args []string) error {
	var only string
	if len(args) > 0 {
		only = args[0]
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GENERIC\tCLASS\tLABEL")
	for _, e := range a.resolver.Table().Entries() {
		if only != "" && e.Key.Generic != only {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key.Generic, e.Key.Class, e.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if prims := a.resolver.Table().Primitives(); len(prims) > 0 {
		fmt.Fprintf(a.out, "\nprimitive generics: %s\n", strings.Join(prims, ", "))
	}
	return nil
}

// handleExportCommand processes `classdispatch export`.
func (a *app) handleExportCommand(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	output := fs.String("o", "", "Catalog path (default from dispatch.toml)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *output
	if path == "" {
		path = a.manifest.CatalogPath()
	}

	c, err := catalog.Open(path)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Save(context.Background(), a.resolver.Table()); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "exported %d methods to %s\n", a.resolver.Table().Len(), path)
	return nil
}

// handleTraceCommand processes `classdispatch trace`. The recording is
// written even when resolution fails; the failure is returned afterwards.
func (a *app) handleTraceCommand(args []string) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	format := fs.String("format", "yaml", "Output format: yaml or cbor")
	if err := fs.Parse(args); err != nil {
		return err
	}

	generic, obj, err := a.target("trace", fs.Args())
	if err != nil {
		return err
	}

	var marshal func(*trace.Recording) ([]byte, error)
	switch *format {
	case "yaml":
		marshal = trace.MarshalRecordingYAML
	case "cbor":
		marshal = trace.MarshalRecording
	default:
		return fmt.Errorf("unknown trace format %q", *format)
	}

	a.recorder.Reset()
	_, dispatchErr := a.resolver.Dispatch(context.Background(), generic, obj, nil)

	data, err := marshal(a.recorder.Recording())
	if err != nil {
		return err
	}
	if _, err := a.out.Write(data); err != nil {
		return err
	}
	return dispatchErr
}
