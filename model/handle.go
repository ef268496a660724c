package model

// TensorHandle and OpHandle are stable arena indices. They replace raw
// pointers as the only cross-reference type that survives a pass
// boundary (Design Notes: "iterator-heavy graph walking").
//
// The zero value is never issued by a Session and is reserved to mean
// "no handle".
type TensorHandle uint32

type OpHandle uint32

// Valid reports whether h was actually issued by a Session.
func (h TensorHandle) Valid() bool { return h != 0 }

func (h OpHandle) Valid() bool { return h != 0 }
