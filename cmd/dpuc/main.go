// Command dpuc drives the compiler pipeline end to end: it builds a
// graph, solves strategies, schedules it against a target, and writes
// the serialised artifact to a file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sbl8/dpuforge/compiler"
	"github.com/sbl8/dpuforge/compiler/fixture"
	"github.com/sbl8/dpuforge/core"
	"github.com/sbl8/dpuforge/model"
	"github.com/sbl8/dpuforge/target"
	"go.uber.org/zap"
)

func main() {
	var (
		device   = flag.String("device", "ma2490", "Target device: ma2490, ma3100, ma3720")
		clusters = flag.Int("clusters", 2, "Number of clusters")
		dpus     = flag.Int("dpus", 4, "Number of DPUs")
		cmx      = flag.Int64("cmx", 2<<20, "Per-cluster scratchpad bytes")
		bw       = flag.Float64("bandwidth", 20e9, "Memory bandwidth, bytes/sec")
		clock    = flag.Float64("clock", 700, "System clock, MHz")
		ops      = flag.Int("ops", 4, "Number of conv ops in the test-fixture chain")
		kernel   = flag.Int("kernel", 3, "Convolution kernel size")
		version  = flag.Bool("version", false, "Show version information")
		verbose  = flag.Bool("verbose", false, "Emit structured per-pass compile logs")
	)
	flag.Parse()

	if *version {
		fmt.Println("dpuc - DPUForge Compiler v1.0.0")
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <out.dpuf>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	outFile := args[0]

	deviceID, err := parseDevice(*device)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := model.DefaultConfig()
	cfg.NumberOfClusters = *clusters
	cfg.NumberOfDPUs = *dpus
	cfg.CMX = *cmx
	cfg.MemoryBandwidth = *bw
	cfg.SystemClockMHz = *clock

	var logger *zap.Logger
	if *verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatalf("failed to build logger: %v", err)
		}
	} else {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	sess := model.NewSession(cfg, logger)
	g := fixture.ConvChain(*ops, core.NewShape(1, 16, 32, 32), *kernel, sess)

	opt := compiler.Options{
		Config:     cfg,
		Descriptor: target.NewDescriptor(deviceID, target.RevisionA0),
		Registry:   compiler.DefaultRegistry(g),
		Logger:     logger,
	}

	out, err := compiler.Compile(g, opt)
	if err != nil {
		log.Fatalf("compilation failed: %v", err)
	}

	if err := os.WriteFile(outFile, out.Artifact, 0o644); err != nil {
		log.Fatalf("failed to write artifact: %v", err)
	}

	fmt.Printf("Compiled %d ops into %d scheduled tasks -> %s (%d bytes)\n",
		*ops, len(out.Tasks), outFile, len(out.Artifact))
}

func parseDevice(name string) (target.DeviceID, error) {
	switch name {
	case "ma2490":
		return target.DeviceMA2490, nil
	case "ma3100":
		return target.DeviceMA3100, nil
	case "ma3720":
		return target.DeviceMA3720, nil
	default:
		return target.DeviceInvalid, fmt.Errorf("unknown device %q", name)
	}
}
