// Command bloomer builds a filter from a file of items and probes it.
//
// Items and probes are newline-separated. An empty line is a null item.
// Service settings come from BLOOMER_* environment variables.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jcalabro/bloomer/service"
)

type options struct {
	rate     float64
	items    string
	probe    string
	parallel bool
	out      string
	bind     bool
}

func main() {
	var opts options
	flag.Float64Var(&opts.rate, "rate", 0.01, "target false positive rate, in (0, 1)")
	flag.StringVar(&opts.items, "items", "", "file of items to insert (required)")
	flag.StringVar(&opts.probe, "probe", "", "file of items to test (default: the items file)")
	flag.BoolVar(&opts.parallel, "parallel", false, "probe with the parallel batch query")
	flag.StringVar(&opts.out, "out", "", "write the compressed serialized filter to this path")
	flag.BoolVar(&opts.bind, "bind", false, "bind an endpoint and probe through it")
	flag.Parse()

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	if opts.items == "" {
		return errors.New("-items is required")
	}
	if opts.probe == "" {
		opts.probe = opts.items
	}

	cfg, err := service.LoadConfig()
	if err != nil {
		return err
	}
	svc := service.New(cfg)
	defer svc.Close(ctx)

	w := svc.NewWorker()

	items, err := readItems(opts.items)
	if err != nil {
		return err
	}
	h, err := w.CreateFilterFromItems(ctx, opts.rate, items)
	if err != nil {
		return fmt.Errorf("create filter: %w", err)
	}

	probes, err := readItems(opts.probe)
	if err != nil {
		return err
	}

	var got []bool
	switch {
	case opts.bind:
		id, err := w.BindEndpoint(ctx, h)
		if err != nil {
			return err
		}
		got = w.EndpointContainsBatch(id, probes)
		if elapsed, ok := w.EndpointTiming(ctx, id, probes); ok {
			svc.Logger().InfoContext(ctx, "endpoint probe", "endpoint", string(id), "elapsed", elapsed)
		}
	case opts.parallel:
		got = w.ContainsBatchParallel(h, probes)
	default:
		got = w.ContainsBatch(h, probes)
	}

	bw := bufio.NewWriter(stdout)
	for i, item := range probes {
		fmt.Fprintf(bw, "%s\t%t\n", item, got[i])
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	if opts.out != "" {
		data, ok := w.SerializeCompressed(ctx, h)
		if !ok {
			return errors.New("serialize filter failed")
		}
		if err := os.WriteFile(opts.out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.out, err)
		}
	}
	return nil
}

// readItems reads one item per line. Empty lines become nil items.
func readItems(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var items [][]byte
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			items = append(items, nil)
			continue
		}
		items = append(items, append([]byte(nil), line...))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return items, nil
}
