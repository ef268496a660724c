package model

// Barrier is a synchronisation object with a stable index and
// producer/consumer counts (§3). Tasks reference barriers by index
// through their Wait/Update sets.
type Barrier struct {
	Index         uint32
	ProducerCount int
	ConsumerCount int
}
