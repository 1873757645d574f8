// Package expiry provides the expiry policies of lazily expiring stores.
//
// A policy only computes durations. The store turns them into expiration times when values are created,
// read or updated, and judges expiration with IsExpired against a single sample of its clock.
package expiry
