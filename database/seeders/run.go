// Package seeders fills a fresh database with demo departments, accounts
// and vendors. Seeders register themselves from init():
//
//	func init() { seeders.Register("vendors", SeedVendors) }
//
// and run in registration order via `webdiner seed`. Every seeder must be
// safe to run twice.
package seeders

import (
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/webdiner/webdiner/pkg/logger"
)

// SeederFunc inserts rows into db.
type SeederFunc func(db *gorm.DB) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder. Names must be unique.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	for _, e := range entries {
		if e.name == name {
			panic(fmt.Sprintf("seeders: %q registered twice", name))
		}
	}
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Names lists the registered seeders in run order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// RunAll runs every seeder, each in its own transaction, and stops at the
// first failure. It returns how many completed.
func RunAll(db *gorm.DB) (int, error) {
	mu.Lock()
	current := append([]seederEntry(nil), entries...)
	mu.Unlock()

	for i, e := range current {
		if err := db.Transaction(e.fn); err != nil {
			return i, fmt.Errorf("seeders: %s: %w", e.name, err)
		}
		logger.Info("seeders: done", "seeder", e.name)
	}
	return len(current), nil
}
