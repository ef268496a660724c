package split

import "github.com/sbl8/dpuforge/model"

type boundary struct {
	producer, consumer model.SplitStrategy
}

// incompatible is the explicit cross-strategy boundary table of §4.2:
// {SOH<->Clustering, SOH<->SOK, SOK->HKSwitch, Clustering->HKSwitch},
// keyed producer->consumer.
var incompatible = map[boundary]bool{
	{model.StrategySplitOverH, model.StrategyClustering}: true,
	{model.StrategyClustering, model.StrategySplitOverH}: true,
	{model.StrategySplitOverH, model.StrategySplitOverK}: true,
	{model.StrategySplitOverK, model.StrategySplitOverH}: true,
	{model.StrategySplitOverK, model.StrategyHKSwitch}:   true,
	{model.StrategyClustering, model.StrategyHKSwitch}:   true,
}

// Fixup is the resolution for one producer/consumer strategy boundary
// (§4.2 "Fix-ups on cross-strategy boundaries"): either an override
// tag plus a re-split of the DMA's input/output, or a promotion of the
// producer to ClusteringAndSOH.
type Fixup struct {
	Required bool
	Override string // "ClusteringToSoH" / "SoHToClustering", or "" if not applicable
	Promote  bool   // promote producer to model.StrategyClusteringAndSOH
}

// ResolveBoundary decides the fix-up, if any, for a producer/consumer
// strategy pair.
func ResolveBoundary(producer, consumer model.SplitStrategy) Fixup {
	if !incompatible[boundary{producer, consumer}] {
		return Fixup{}
	}
	switch {
	case producer == model.StrategyClustering && consumer == model.StrategySplitOverH:
		return Fixup{Required: true, Override: "ClusteringToSoH"}
	case producer == model.StrategySplitOverH && consumer == model.StrategyClustering:
		return Fixup{Required: true, Override: "SoHToClustering"}
	default:
		return Fixup{Required: true, Promote: true}
	}
}

// RequiresOverlapRespit reports the special case of §4.2's last
// sentence: a DMA-to-DMA adjacency feeding a channel-major convolution
// under SplitOverH must re-set the intermediate tensor to
// SplitOverHOverlapped and re-split it.
func RequiresOverlapRespit(consumerTaskOp model.TaskOp, consumerStrategy model.SplitStrategy) bool {
	return consumerTaskOp == model.TaskOpChannelMajorConvolution && consumerStrategy == model.StrategySplitOverH
}
