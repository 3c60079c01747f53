package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/woozymasta/globle/internal/atlas"
	"github.com/woozymasta/globle/internal/geo"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Input  string  `short:"i" long:"in"     description:"Input countries GeoJSON path. Reads from stdin if empty"`
	Output string  `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format string  `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Radius float64 `short:"r" long:"radius" description:"Sphere radius of the exported 3D centroids" default:"5"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Radius <= 0 {
		fmt.Fprintln(os.Stderr, "Error: --radius must be > 0")
		os.Exit(1)
	}

	// Read Input
	var inputData []byte
	var err error

	if opts.Input != "" {
		inputData, err = os.ReadFile(opts.Input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}
	} else {
		inputData, err = io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
	}

	col, err := geo.Decode(inputData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding countries: %v\n", err)
		os.Exit(1)
	}
	for _, s := range col.Skipped {
		fmt.Fprintf(os.Stderr, "Skipping feature %d: %v\n", s.Index, s.Err)
	}

	fc := atlas.New(col).CentroidCollection(opts.Radius)

	// marshal
	outputData, err := json.MarshalIndent(fc, "", "  ")
	if err == nil && opts.Format == "yaml" {
		// orb only knows how to encode JSON, go through a generic tree
		var tree any
		if err = json.Unmarshal(outputData, &tree); err == nil {
			outputData, err = yaml.Marshal(tree)
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully exported %d centroids to %s (format: %s)\n", len(fc.Features), opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}
