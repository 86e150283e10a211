// classdispatch CLI - runs and explains generic dispatch over a dispatch.toml project
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	dir := flag.String("C", ".", "Directory to search for dispatch.toml")
	verbose := flag.Bool("v", false, "Verbose output (debug logging)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: classdispatch [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run <generic> <object> [args...]   Dispatch and print the result\n")
		fmt.Fprintf(os.Stderr, "  explain <generic> <object>         Show the candidates dispatch walks\n")
		fmt.Fprintf(os.Stderr, "  methods [generic]                  List registered methods\n")
		fmt.Fprintf(os.Stderr, "  export [-o path]                   Write the method catalog\n")
		fmt.Fprintf(os.Stderr, "  trace [-format yaml|cbor] <generic> <object>\n")
		fmt.Fprintf(os.Stderr, "                                     Dispatch and dump the recorded chain\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  classdispatch explain print x\n")
		fmt.Fprintf(os.Stderr, "  classdispatch -C ./shapes trace -format cbor area circle > area.cbor\n")
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	a, err := loadApp(*dir, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	verbosity := a.manifest.Logging.Verbosity
	if *verbose && verbosity < 2 {
		verbosity = 2
	}
	commonlog.Configure(verbosity, a.manifest.LogFile())

	a.color = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	if err := a.runCommand(flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
