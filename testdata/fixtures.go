// Package testdata bundles chart and replay fixtures shared across test
// packages.
package testdata

import (
	"embed"
	"fmt"
)

//go:embed charts/*.json replays/*.jsonl
var fixturesFS embed.FS

// Chart returns a bundled chart document by name.
func Chart(name string) ([]byte, error) {
	data, err := fixturesFS.ReadFile("charts/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load chart %s: %w", name, err)
	}
	return data, nil
}

// Replay returns a bundled replay log by name.
func Replay(name string) ([]byte, error) {
	data, err := fixturesFS.ReadFile("replays/" + name + ".jsonl")
	if err != nil {
		return nil, fmt.Errorf("load replay %s: %w", name, err)
	}
	return data, nil
}
