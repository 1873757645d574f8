// Package memstore provides an in-memory implementation of the expiringstore.Store interface.
//
// Entries are distributed across buckets by key hash. Each bucket is guarded by its own lock, which is held for
// the whole of an operation on one of its keys: sampling the clock, detecting expiration, notifying the listener,
// and applying the operation's own mutation. Two operations racing on the same expired key therefore notify once.
//
// Expiration is lazy. Nothing runs in the background; an expired entry is only noticed, reported and dropped
// when an operation addresses its key.
package memstore
