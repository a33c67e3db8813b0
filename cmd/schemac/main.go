// schemac compiles YAML component schemas into a binary application header.
//
// Usage:
//
//	go run ./cmd/schemac -in schema.yaml -out app.bin
//	go run ./cmd/schemac -dump app.bin
//
// -dump decodes a header and prints it as YAML schema source followed by
// the computed layout of every component.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mewah/core/internal/data"
	"github.com/mewah/core/internal/header"
)

func main() {
	fs := flag.NewFlagSet("schemac", flag.ExitOnError)
	in := fs.String("in", "", "YAML schema source")
	out := fs.String("out", "app.bin", "header output file")
	dump := fs.String("dump", "", "header file to decode and print")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: schemac -in schema.yaml [-out app.bin] | schemac -dump app.bin")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	var err error
	switch {
	case *dump != "":
		err = dumpHeader(os.Stdout, *dump)
	case *in != "":
		err = compile(*in, *out)
	default:
		fs.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func compile(in, out string) error {
	app, err := data.LoadSchemaFile(in)
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := header.Encode(f, app); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("%s -> %s: %d assets, %d components\n", in, out, len(app.Assets), len(app.Components))
	return nil
}

func dumpHeader(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	app, err := header.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	src, err := data.MarshalSchema(app)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "# decoded from %s\n\n", path)
	if _, err := w.Write(src); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "# component\tsize\talign\tfingerprint")
	for _, c := range app.Components {
		fmt.Fprintf(tw, "# %s\t%d\t%d\t%s\n", c.Name, c.LayoutSize, c.LayoutAlign, header.FingerprintHex(c)[:16])
		for i, field := range c.Fields {
			fmt.Fprintf(tw, "#   .%s\t+%d\t%d\t%s\n", field.Name, c.Layout().Offsets[i], field.Align(), field.Kind)
		}
	}
	return tw.Flush()
}
