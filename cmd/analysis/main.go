// Command analysis measures the observed false positive rate of each
// engine against its target and the estimate derived from fill.
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jcalabro/bloomer"
)

func main() {
	n := flag.Int("n", 100_000, "items inserted per filter")
	probes := flag.Int("probes", 1_000_000, "absent items tested per filter")
	flag.Parse()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "engine\ttarget\tk\tbits\tfill\testimated\tobserved")

	for _, engine := range []bloomer.Engine{bloomer.EngineBlocked, bloomer.EngineClassic} {
		for _, rate := range []float64{0.1, 0.05, 0.01, 0.001, 0.0001} {
			r, err := measure(engine, rate, *n, *probes)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(tw, "%s\t%g\t%d\t%d\t%.3f\t%.5f\t%.5f\n",
				engine, rate, r.k, r.bits, r.fill, r.estimated, r.observed)
		}
	}
	tw.Flush()
}

type result struct {
	k         uint32
	bits      uint64
	fill      float64
	estimated float64
	observed  float64
}

func measure(engine bloomer.Engine, rate float64, n, probes int) (result, error) {
	f, err := bloomer.New(rate, int64(n), bloomer.WithEngine(engine))
	if err != nil {
		return result{}, err
	}
	for i := range n {
		f.Insert(fmt.Appendf(nil, "member-%d", i))
	}

	var fp int
	for i := range probes {
		if f.Contains(fmt.Appendf(nil, "absent-%d", i)) {
			fp++
		}
	}

	return result{
		k:         f.K(),
		bits:      f.Cap(),
		fill:      f.EstimatedFillRatio(),
		estimated: f.EstimatedFalsePositiveRate(),
		observed:  float64(fp) / float64(probes),
	}, nil
}
