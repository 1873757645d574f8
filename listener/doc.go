// Package listener provides building blocks for expiringstore.StoreEventListener implementations.
package listener
