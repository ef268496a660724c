// Package dpuforge implements the compilation core of a neural-network
// compiler that lowers a logical operator graph onto a multi-cluster
// dataflow accelerator: several DPU clusters with per-cluster scratchpad
// memory, DMA engines moving tensors between host DRAM and scratchpad,
// and hardware barriers synchronising tasks.
//
// The core takes a typed operator graph (already resolved to
// target-specific ops) and emits an executable binary consisting of a
// scheduled task list, a packed weights/constants blob, per-tensor
// placement and strides, and a barrier table.
//
// # Architecture Overview
//
// The core is a pipeline of passes over one persistent computation
// model:
//
//   - Workload rectangle engine: tiles a DPU op's output into MPE-mode
//     rectangles and estimates execution cost.
//   - Subtensor splitter: maps a tensor to per-cluster subtensors under
//     a named split strategy.
//   - Strategy manager: chooses, per op, the cluster split / streaming /
//     spilling / sparsity combination minimising whole-graph cost.
//   - Feasible memory scheduler: orders tasks on a scratchpad budget,
//     inserting spill DMAs when demand exceeds capacity.
//   - Runtime serialiser: lowers the scheduled graph to a flat,
//     bit-exact binary.
//
// # Basic Usage
//
//	// Compile a graph built from a test fixture or front-end.
//	out, err := compiler.Compile(graph, compiler.Options{
//	    Config:     cfg,
//	    Descriptor: descriptor,
//	    Registry:   registry,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Compile the built-in fixture graph to a file, then inspect it.
//	dpuc out.dpuf
//	dpudump -verbose out.dpuf
//
// # Package Structure
//
//   - core: shape, dtype, quantisation and alignment primitives.
//   - model: the arena-owned computation model (tensors, ops, graph,
//     session, config, errors).
//   - workload: the rectangle tiling engine and lattice fallback.
//   - split: the subtensor splitter and cross-strategy fix-up table.
//   - strategy: the graph optimiser (one layered graph over all ops,
//     solved with Dijkstra; branches are not solved separately or fused
//     into a meta-graph).
//   - schedule: the feasible memory scheduler.
//   - serialize: the flat-binary runtime serialiser.
//   - target: device descriptors, cost tables, and the HDE codec.
//   - compiler: the top-level pipeline orchestrator.
//   - cmd: command-line tools (dpuc, dpudump, dpubench).
//
// For more information, see the project repository at
// https://github.com/sbl8/dpuforge
package dpuforge
