// Package migrations holds the schema history. Each file registers its
// migrations from init(); cmd/webdiner imports the package for that side
// effect.
package migrations
