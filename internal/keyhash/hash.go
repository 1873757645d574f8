package keyhash

import (
	"encoding/binary"
	"hash/fnv"
	"hash/maphash"
	"math"
	"sync"

	"github.com/goccy/go-reflect"
)

var (
	// cacheMu guards cache.
	cacheMu sync.RWMutex

	// cache holds the hash functions of builtin scalar key types keyed by the type name.
	cache = map[string]func(any) uint64{}

	// seed is the process-wide seed for keys that are not scalars.
	seed = maphash.MakeSeed()
)

// For returns a hash function for keys of type K.
// Scalar keys are hashed with FNV-1a over their big-endian bytes, so their hashes are stable across processes.
// Any other comparable key is hashed with hash/maphash, stable only within the process.
func For[K comparable]() func(K) uint64 {
	var zero K
	f := getOrCreate(zero, func(v any) uint64 {
		return maphash.Comparable(seed, v.(K))
	})
	return func(key K) uint64 {
		return f(key)
	}
}

// getOrCreate retrieves or creates the hash function for the type of t.
func getOrCreate(t any, fallback func(any) uint64) func(any) uint64 {
	typ := reflect.TypeOf(t)
	if typ == nil {
		// interface key types: the dynamic type decides per call
		return fallback
	}
	name := typ.String()

	cacheMu.RLock()
	f, ok := cache[name]
	cacheMu.RUnlock()
	if ok {
		return f
	}

	f = scalarHash(t)
	if f == nil {
		// named types may share a name across packages, so only builtin scalars are cached
		return fallback
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache[name] = f
	return f
}

// scalarHash returns a FNV-1a based hash function for scalar types, or nil for the others.
func scalarHash(t any) func(any) uint64 {
	switch t.(type) {
	case int:
		return func(v any) uint64 { return sum64(uint64(v.(int))) }
	case int8:
		return func(v any) uint64 { return sum8(uint8(v.(int8))) }
	case int16:
		return func(v any) uint64 { return sum16(uint16(v.(int16))) }
	case int32:
		return func(v any) uint64 { return sum32(uint32(v.(int32))) }
	case int64:
		return func(v any) uint64 { return sum64(uint64(v.(int64))) }
	case uint:
		return func(v any) uint64 { return sum64(uint64(v.(uint))) }
	case uint8:
		return func(v any) uint64 { return sum8(v.(uint8)) }
	case uint16:
		return func(v any) uint64 { return sum16(v.(uint16)) }
	case uint32:
		return func(v any) uint64 { return sum32(v.(uint32)) }
	case uint64:
		return func(v any) uint64 { return sum64(v.(uint64)) }
	case float32:
		return func(v any) uint64 { return sum32(math.Float32bits(v.(float32))) }
	case float64:
		return func(v any) uint64 { return sum64(math.Float64bits(v.(float64))) }
	case string:
		return func(v any) uint64 { return sum([]byte(v.(string))) }
	default:
		return nil
	}
}

func sum8(v uint8) uint64 {
	return sum([]byte{v})
}

func sum16(v uint16) uint64 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return sum(b[:])
}

func sum32(v uint32) uint64 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return sum(b[:])
}

func sum64(v uint64) uint64 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return sum(b[:])
}

// sum computes a 64-bit FNV-1a hash of b.
func sum(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
