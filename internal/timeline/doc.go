// Package timeline implements a sparse, time-indexed, multi-channel event
// store with zero-order-hold (step function) read semantics.
//
// A Store holds one snapshot per distinct time key; a snapshot records the
// channels that changed at that instant. The logical value of a channel at
// time t is the value at the greatest key <= t where the channel is
// explicitly present, or the zero value if there is none. Optimize removes
// entries that are redundant under that reading, channel by channel, so a
// key may survive for some channels and be pruned for others.
//
// The package also provides whole-timeline boolean algebra (CombineOr,
// CombineAnd, CombineXor, Complement and the in-place Merge variants) and
// checked byte-order-defined reinterpretation between a byte-granular
// channel layout and wider unsigned integer channels (WideView, NarrowView,
// Widen, Flatten).
package timeline
