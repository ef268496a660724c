// Command dpubench runs the compiler pipeline over a range of cluster
// counts concurrently and reports each configuration's task count and
// artifact size, plus the standard deviation of artifact size across
// the sweep. Independent trials are genuinely unrelated compiles,
// so this is the one place in the tree that fans work out across
// goroutines; every other package stays single-threaded per §5.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/chewxy/math32"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sbl8/dpuforge/compiler"
	"github.com/sbl8/dpuforge/compiler/fixture"
	"github.com/sbl8/dpuforge/core"
	"github.com/sbl8/dpuforge/model"
	"github.com/sbl8/dpuforge/target"
)

type trial struct {
	clusters int
	tasks    int
	bytes    int
	err      error
}

func main() {
	var (
		ops    = flag.Int("ops", 6, "Number of conv ops in the test-fixture chain")
		kernel = flag.Int("kernel", 3, "Convolution kernel size")
		maxN   = flag.Int("max-clusters", 4, "Largest cluster count to trial")
	)
	flag.Parse()

	clusterCounts := make([]int, 0, *maxN)
	for n := 1; n <= *maxN; n++ {
		clusterCounts = append(clusterCounts, n)
	}

	trials := make([]trial, len(clusterCounts))
	g, ctx := errgroup.WithContext(context.Background())
	for i, n := range clusterCounts {
		i, n := i, n
		g.Go(func() error {
			trials[i] = runTrial(ctx, n, *ops, *kernel)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(trials, func(i, j int) bool { return trials[i].clusters < trials[j].clusters })

	fmt.Printf("%-10s %-10s %-10s\n", "clusters", "tasks", "bytes")
	var sizes []float32
	for _, t := range trials {
		if t.err != nil {
			fmt.Fprintf(os.Stderr, "clusters=%d failed: %v\n", t.clusters, t.err)
			continue
		}
		fmt.Printf("%-10d %-10d %-10d\n", t.clusters, t.tasks, t.bytes)
		sizes = append(sizes, float32(t.bytes))
	}

	if len(sizes) > 1 {
		fmt.Printf("\nartifact size stddev across configurations: %.1f bytes\n", stddev(sizes))
	}
}

func runTrial(ctx context.Context, clusters, ops, kernel int) trial {
	select {
	case <-ctx.Done():
		return trial{clusters: clusters, err: ctx.Err()}
	default:
	}

	cfg := model.DefaultConfig()
	cfg.NumberOfClusters = clusters
	cfg.NumberOfDPUs = clusters * 2
	cfg.CMX = 4 << 20

	// Each trial gets its own Session: Session's handle counters are
	// not concurrency-safe, and trials run on independent goroutines
	// (§5's single-threaded rule applies per compile, not across the
	// trial harness).
	sess := model.NewSession(cfg, zap.NewNop())
	gr := fixture.ConvChain(ops, core.NewShape(1, 16, 32, 32), kernel, sess)

	opt := compiler.Options{
		Config:     cfg,
		Descriptor: target.NewDescriptor(target.DeviceMA2490, target.RevisionA0),
		Registry:   compiler.DefaultRegistry(gr),
	}

	out, err := compiler.Compile(gr, opt)
	if err != nil {
		return trial{clusters: clusters, err: err}
	}
	return trial{clusters: clusters, tasks: len(out.Tasks), bytes: len(out.Artifact)}
}

func stddev(xs []float32) float32 {
	var mean float32
	for _, x := range xs {
		mean += x
	}
	mean /= float32(len(xs))

	var variance float32
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float32(len(xs))

	return math32.Sqrt(variance)
}
