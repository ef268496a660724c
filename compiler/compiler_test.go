package compiler

import (
	"testing"

	"github.com/sbl8/dpuforge/compiler/fixture"
	"github.com/sbl8/dpuforge/core"
	"github.com/sbl8/dpuforge/model"
	"github.com/sbl8/dpuforge/strategy"
	"github.com/sbl8/dpuforge/target"
)

func clusteringOnlyRegistry(g *model.Graph) strategy.Registry {
	reg := make(strategy.Registry)
	for _, h := range g.Ops() {
		reg[h] = []strategy.Candidate{{Name: "clustering", Strategy: model.StrategyClustering}}
	}
	return reg
}

func TestCompilePipeline(t *testing.T) {
	t.Parallel()
	g := fixture.ConvChain(3, core.NewShape(1, 8, 16, 16), 3, model.NewSession(model.DefaultConfig(), nil))

	cfg := model.DefaultConfig()
	cfg.NumberOfClusters = 1
	cfg.NumberOfDPUs = 1
	cfg.CMX = 8 << 20

	opt := Options{
		Config:     cfg,
		Descriptor: target.NewDescriptor(target.DeviceMA2490, target.RevisionA0),
		Registry:   clusteringOnlyRegistry(g),
	}

	out, err := Compile(g, opt)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(out.Tasks) == 0 {
		t.Error("Compile() produced no scheduled tasks")
	}
	if len(out.Artifact) == 0 {
		t.Error("Compile() produced no artifact bytes")
	}
	if len(out.Strategy.Choices) != 3 {
		t.Errorf("len(Choices) = %d, want 3", len(out.Strategy.Choices))
	}
}

func TestCompileRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	g := fixture.ConvChain(1, core.NewShape(1, 8, 16, 16), 3, model.NewSession(model.DefaultConfig(), nil))
	opt := Options{
		Config:     model.Config{},
		Descriptor: target.NewDescriptor(target.DeviceMA2490, target.RevisionA0),
		Registry:   clusteringOnlyRegistry(g),
	}
	if _, err := Compile(g, opt); err == nil {
		t.Fatal("Compile() error = nil, want validation error for zero-value config")
	}
}
