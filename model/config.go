package model

import "github.com/cockroachdb/errors"

// Config is the global configuration table the core reads from
// upstream (§6, "Global config"). Every field is read-only once a
// Session is constructed.
type Config struct {
	NumberOfClusters int
	NumberOfDPUs     int

	CMX        int64 // per-cluster scratchpad bytes
	DDRScratch int64 // DRAM scratch bytes

	MemoryBandwidth float64 // bytes/sec, used by the cost model
	SystemClockMHz  float64

	PadOutput          bool
	HuffmanCompression bool
	CSRAMLimit         int64

	EnableStaticBarriers bool
	DMAControllers       int
	VPU2ChannelPadding   int
}

// DefaultConfig returns conservative defaults matching a single-cluster
// reference device; callers override fields for the real target.
func DefaultConfig() Config {
	return Config{
		NumberOfClusters:   1,
		NumberOfDPUs:       1,
		CMX:                1 << 20,
		DDRScratch:         0,
		MemoryBandwidth:    20e9,
		SystemClockMHz:     700,
		VPU2ChannelPadding: 16,
		DMAControllers:     1,
	}
}

// DPUsPerCluster divides DPUs evenly across clusters, per §6.
func (c Config) DPUsPerCluster() int {
	if c.NumberOfClusters == 0 {
		return 0
	}
	return c.NumberOfDPUs / c.NumberOfClusters
}

// Validate reports the first violated constraint as an Argument error.
func (c Config) Validate() error {
	const pass = "config"
	if c.NumberOfClusters < 1 {
		return NewError(ErrorKindArgument, pass, "", "Number_of_Clusters must be >= 1",
			errors.Newf("got %d", c.NumberOfClusters))
	}
	if c.NumberOfDPUs < c.NumberOfClusters {
		return NewError(ErrorKindArgument, pass, "", "Number_of_DPUs must be >= Number_of_Clusters",
			errors.Newf("dpus=%d clusters=%d", c.NumberOfDPUs, c.NumberOfClusters))
	}
	if c.CMX <= 0 {
		return NewError(ErrorKindArgument, pass, "", "cmx must be positive",
			errors.Newf("got %d", c.CMX))
	}
	if c.DDRScratch < 0 {
		return NewError(ErrorKindArgument, pass, "", "DDRScratch must be >= 0", nil)
	}
	if c.CSRAMLimit < 0 {
		return NewError(ErrorKindArgument, pass, "", "csramLimit must be >= 0", nil)
	}
	if c.DMAControllers < 1 {
		return NewError(ErrorKindArgument, pass, "", "dmaControllers must be >= 1", nil)
	}
	if c.VPU2ChannelPadding <= 0 {
		return NewError(ErrorKindArgument, pass, "", "VPU2ChannelPadding must be positive", nil)
	}
	return nil
}
