package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"text/tabwriter"

	"github.com/vuuvv/errors"
	"github.com/vuuvv/structlayout"
	"github.com/vuuvv/structlayout/codec"
	"github.com/vuuvv/structlayout/core"
	"github.com/vuuvv/structlayout/expr"
	"github.com/vuuvv/structlayout/layout"
	"github.com/vuuvv/structlayout/parser"
	"github.com/vuuvv/structlayout/registry"
	"github.com/vuuvv/structlayout/utils"
)

type options struct {
	file      string
	target    string
	pack      int
	legacy    bool
	configDir string
	endian    string
	hex       string
	flex      string
	length    int
	check     string
	json      bool
	types     bool
	verbose   bool
}

type report struct {
	Layout   *layout.Result     `json:"layout,omitempty"`
	Rows     []codec.FieldValue `json:"rows,omitempty"`
	Assembly *codec.Assembly    `json:"assembly,omitempty"`
	Check    *bool              `json:"check,omitempty"`
	Types    *typeTable         `json:"types,omitempty"`
}

type typeTable struct {
	Base    map[string]core.TypeInfo `json:"base"`
	Custom  map[string]core.TypeInfo `json:"custom,omitempty"`
	Aliases map[string]string        `json:"aliases"`
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "C/C++ header containing the struct or union")
	flag.StringVar(&opts.target, "target", "", "Name of the aggregate to lay out (default: last one)")
	flag.IntVar(&opts.pack, "pack", -1, "Override #pragma pack (0 = natural)")
	flag.BoolVar(&opts.legacy, "legacy", false, "Use the lenient flat parser")
	flag.StringVar(&opts.configDir, "config", "", "Directory holding type_aliases.yaml and custom_types.yaml")
	flag.StringVar(&opts.endian, "endian", "little", "Byte order: little or big")
	flag.StringVar(&opts.hex, "hex", "", "Hex buffer to decode against the layout")
	flag.StringVar(&opts.flex, "flex", "", "0x tokens to assemble into a buffer")
	flag.IntVar(&opts.length, "len", -1, "Target length for -flex (default: struct size, or none)")
	flag.StringVar(&opts.check, "check", "", "CEL expression evaluated over the decoded fields")
	flag.BoolVar(&opts.json, "json", false, "Print JSON instead of tables")
	flag.BoolVar(&opts.types, "types", false, "List known types and aliases")
	flag.BoolVar(&opts.verbose, "v", false, "Debug logging")
	flag.Parse()

	if opts.file == "" && opts.flex == "" && !opts.types {
		fmt.Fprintln(os.Stderr, "Usage: structlayout -file <header.h> [-target Name] [-pack N] [-hex data] [-check expr]")
		fmt.Fprintln(os.Stderr, "       structlayout -flex \"0x01, 0x0302\" [-len N]")
		fmt.Fprintln(os.Stderr, "       structlayout -types [-config dir]")
		os.Exit(1)
	}

	if opts.verbose {
		structlayout.Setup()
	}

	code := 0
	func() {
		defer utils.Catch(func(reason any) { code = 2 })
		if err := run(opts, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			code = 1
		}
	}()
	os.Exit(code)
}

func run(opts options, w io.Writer) error {
	endian, err := core.ParseEndian(opts.endian)
	if err != nil {
		return err
	}

	out := &report{}
	if opts.file != "" || opts.types {
		reg, err := loadRegistry(opts.configDir)
		if err != nil {
			return err
		}
		if opts.types {
			out.Types = &typeTable{Base: reg.BaseTypes(), Custom: reg.CustomTypes(), Aliases: reg.Aliases()}
		}
		if opts.file != "" {
			out.Layout, err = computeLayout(opts, reg)
			if err != nil {
				return err
			}
		}
	}

	if opts.flex != "" {
		target := opts.length
		if target < 0 && out.Layout != nil {
			target = int(out.Layout.TotalSize)
		}
		out.Assembly, err = codec.AssembleFlexible(opts.flex, target)
		if err != nil {
			return err
		}
		if out.Layout != nil {
			out.Rows, err = codec.DecodeLayout(out.Assembly.Data, out.Layout.Items, endian)
			if err != nil {
				return err
			}
		}
	} else if opts.hex != "" && out.Layout != nil {
		out.Rows, err = codec.DecodeHex(opts.hex, out.Layout.Items, out.Layout.TotalSize, endian)
		if err != nil {
			return err
		}
	}

	if opts.check != "" {
		if out.Rows == nil {
			return core.NewError(core.KindInvalidArgument).Detail("-check needs decoded data (-hex or -flex)").Build()
		}
		ev, err := expr.Compile(opts.check)
		if err != nil {
			return err
		}
		ok, err := ev.Check(expr.NewEnv(out.Rows))
		if err != nil {
			return err
		}
		out.Check = &ok
	}

	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err = enc.Encode(out); err != nil {
			return errors.WithStack(err)
		}
		return nil
	}
	return printReport(w, out)
}

func loadRegistry(dir string) (*registry.Registry, error) {
	var cfg *registry.Config
	var err error
	if dir == "" {
		cfg, err = registry.ConfigFromEnv(".")
	} else {
		cfg, err = registry.LoadConfig(filepath.Join(dir, registry.DefaultAliasesFile), filepath.Join(dir, registry.DefaultCustomFile))
	}
	if err != nil {
		return nil, err
	}
	return registry.New(cfg)
}

func computeLayout(opts options, reg *registry.Registry) (*layout.Result, error) {
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", opts.file)
	}
	calc := layout.New(reg)

	if opts.legacy {
		def, err := parser.ParseLegacy(string(data), reg)
		if err != nil {
			return nil, err
		}
		pack := def.Pack
		if opts.pack >= 0 {
			pack = uint(opts.pack)
		}
		return calc.ComputeFlat(def.Members, def.Kind, pack)
	}

	var popts []parser.Option
	if opts.target != "" {
		popts = append(popts, parser.WithTarget(opts.target))
	}
	def, err := parser.Parse(string(data), popts...)
	if err != nil {
		return nil, err
	}
	if opts.pack >= 0 {
		return calc.ComputeMembers(def.Body().Members, def.Kind(), uint(opts.pack))
	}
	return calc.Compute(def)
}

func printReport(w io.Writer, r *report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if r.Types != nil {
		fmt.Fprintln(tw, "TYPE\tSIZE\tALIGN")
		for _, name := range slices.Sorted(maps.Keys(r.Types.Base)) {
			info := r.Types.Base[name]
			fmt.Fprintf(tw, "%s\t%d\t%d\n", name, info.Size, info.Align)
		}
		for _, name := range slices.Sorted(maps.Keys(r.Types.Custom)) {
			info := r.Types.Custom[name]
			fmt.Fprintf(tw, "%s\t%d\t%d\n", name, info.Size, info.Align)
		}
		fmt.Fprintln(tw, "\nALIAS\tTARGET")
		for _, name := range slices.Sorted(maps.Keys(r.Types.Aliases)) {
			fmt.Fprintf(tw, "%s\t%s\n", name, r.Types.Aliases[name])
		}
	}
	if r.Layout != nil {
		fmt.Fprintf(tw, "Size: %d\tAlign: %d\n\n", r.Layout.TotalSize, r.Layout.Alignment)
		fmt.Fprintln(tw, "NAME\tTYPE\tOFFSET\tSIZE\tBITS")
		for _, it := range r.Layout.Items {
			bits := ""
			if it.IsBitfield {
				bits = fmt.Sprintf("%d:%d", it.BitOffset, it.BitSize)
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", it.Name, it.Type, it.Offset, it.Size, bits)
		}
	}
	if r.Assembly != nil {
		fmt.Fprintf(tw, "\nBytes: % x\n", r.Assembly.Data)
		for _, warn := range r.Assembly.Warnings {
			fmt.Fprintf(tw, "warning: %s\n", warn)
		}
	}
	if len(r.Rows) > 0 {
		fmt.Fprintln(tw, "\nNAME\tVALUE\tHEX")
		for _, row := range r.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Name, row.Value, row.HexRaw)
		}
	}
	if r.Check != nil {
		fmt.Fprintf(tw, "\nCheck: %t\n", *r.Check)
	}
	if err := tw.Flush(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
