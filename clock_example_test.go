package expiringstore_test

import (
	"context"
	"fmt"
	"time"

	expiringstore "github.com/karupanerura/expiring-store"
	"github.com/karupanerura/expiring-store/expiry"
	"github.com/karupanerura/expiring-store/listener"
	"github.com/karupanerura/expiring-store/store/memstore"
)

// Book represents a book entity
type Book struct {
	ID   int
	Name string
}

func (u *Book) Clone() *Book {
	return &Book{
		ID:   u.ID,
		Name: u.Name,
	}
}

func ExampleManualClock() {
	// Drive the store with a clock that only moves when told to
	clock := expiringstore.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	store := memstore.NewInMemoryStore[int, *Book](
		memstore.WithClock[int, *Book](clock),
		memstore.WithExpiry[int, *Book](expiry.TimeToLive[int, *Book]{Duration: time.Minute}),
		memstore.WithCloner[int](expiringstore.DefaultValueCloner[*Book]()),
	)

	// Report expired books as they are noticed
	store.EnableStoreEventNotifications(listener.NewBuffer(func(events []listener.Event[int, *Book]) {
		for _, ev := range events {
			fmt.Println("Expired book:", ev.Value.Name)
		}
	}))

	ctx := context.Background()
	if err := store.Put(ctx, 1, &Book{ID: 1, Name: "The Great Gatsby"}); err != nil {
		fmt.Println("Error:", err)
		return
	}

	clock.Advance(30 * time.Second)
	if h, _ := store.Get(ctx, 1); h != nil {
		fmt.Println("Found book:", h.Value().Name)
	}

	clock.Advance(30 * time.Second)
	if h, _ := store.Get(ctx, 1); h == nil {
		fmt.Println("Book not found")
	}

	// Output:
	// Found book: The Great Gatsby
	// Expired book: The Great Gatsby
	// Book not found
}
