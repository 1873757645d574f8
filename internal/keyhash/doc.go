// Package keyhash hashes store keys to pick the bucket that owns them.
package keyhash
