package core

// CacheLineSize is the cache line size AlignCacheLine rounds up to.
const CacheLineSize = 64
