package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/woozymasta/atollmap/internal/geo"
	"github.com/woozymasta/atollmap/internal/locate"
	"github.com/woozymasta/atollmap/internal/table"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

// Options for resolving ad-hoc location references.
type Options struct {
	Input     string `short:"i" long:"in"        description:"Input file, one reference per line. Reads from stdin if empty"`
	Output    string `short:"o" long:"out"       description:"Output file path. Writes to stdout if empty"`
	Format    string `short:"f" long:"format"    description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Centroids bool   `short:"C" long:"centroids" description:"Print the atoll centroid table and exit"`
}

type resolved struct {
	Input       string                 `json:"input" yaml:"input"`
	Atoll       string                 `json:"atoll,omitempty" yaml:"atoll,omitempty"`
	Locality    string                 `json:"locality,omitempty" yaml:"locality,omitempty"`
	Coordinates geo.ResolvedCoordinate `json:"coordinates" yaml:"coordinates"`
	Matcher     string                 `json:"matcher,omitempty" yaml:"matcher,omitempty"`
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

	estimator := locate.MustEstimator()

	var (
		payload interface{}
		err     error
	)
	count := 0

	if opts.Centroids {
		payload = struct {
			Version string          `json:"version" yaml:"version"`
			Regions []locate.Region `json:"regions" yaml:"regions"`
		}{estimator.Version(), estimator.Regions()}
		count = len(estimator.Regions())
	} else {
		var in io.Reader = os.Stdin
		if opts.Input != "" {
			f, err := os.Open(opts.Input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
				os.Exit(1)
			}
			defer func() { _ = f.Close() }()
			in = f
		}

		refs, err := readReferences(in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(1)
		}

		results := locate.NewResolver(estimator).ResolveAll(refs, 4)
		out := make([]resolved, len(refs))
		for i, res := range results {
			out[i] = resolved{
				Input:       refs[i].Location,
				Atoll:       refs[i].Region,
				Locality:    refs[i].Locality,
				Coordinates: res.ResolvedCoordinate,
				Matcher:     res.Matcher,
			}
		}
		payload = out
		count = len(out)
	}

	// marshal
	var outputData []byte
	if opts.Format == "yaml" {
		outputData, err = yaml.Marshal(payload)
	} else {
		outputData, err = json.MarshalIndent(payload, "", "  ")
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
		fmt.Fprintf(os.Stderr, "Successfully wrote %d entries to %s (format: %s)\n", count, opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}

// readReferences parses lines of "location", or "location<TAB>atoll<TAB>locality"
// to enable the fallback estimate. Fields are normalised like spreadsheet cells,
// so "nan" and blank fields are absent.
func readReferences(r io.Reader) ([]locate.Reference, error) {
	var refs []locate.Reference

	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 1 && len(fields) != 3 {
			return nil, fmt.Errorf("line %d: want 1 or 3 tab-separated fields, got %d", n, len(fields))
		}

		ref := locate.Reference{Location: table.Normalize(fields[0]).String()}
		if len(fields) == 3 {
			ref.Region = table.Normalize(fields[1]).String()
			ref.Locality = table.Normalize(fields[2]).String()
		}
		refs = append(refs, ref)
	}

	return refs, sc.Err()
}
