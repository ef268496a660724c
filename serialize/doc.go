// Package serialize implements the runtime serialiser (§4.5): it
// flattens a compiled model.Graph plus its schedule.ScheduledTask list
// into a versioned binary artifact, and parses that artifact back for
// the idempotence check in §8 ("deserialise(serialise(M)) == M up to
// internal arena handles"). Framing is hand-rolled encoding/binary,
// because the exact field layout (dims most-significant-first,
// trailing element size, per-case DMA emission) does not map onto a
// schema codec.
package serialize
