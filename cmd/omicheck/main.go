// Command omicheck loads an OMI data directory and reports its integrity:
// polygon and table counts, and the zone codes present in the boundary files
// that never match a residential row in the values table even after the full
// hierarchical fallback.
//
// Usage:
//
//	go run ./cmd/omicheck -data-dir data/omi
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/lariofin/omi-valuation/internal/observability"
	"github.com/lariofin/omi-valuation/internal/omi"
)

const maxUnmatchedListed = 20

func main() {
	dataDir := flag.String("data-dir", "", "directory containing the OMI dataset")
	flag.Parse()

	if *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(*dataDir))
}

func run(dataDir string) int {
	logger := observability.NewLogger("warn", "text")
	store := omi.NewStore(dataDir, logger)
	if err := store.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	fmt.Println("=== OMI Dataset Check ===")
	fmt.Printf("Polygons loaded:       %d\n", store.PolygonCount())
	fmt.Printf("Value rows loaded:     %d\n", store.ReferenceRowCount())

	// Distinct zones per municipality, and zones with no matching values.
	type zoneKey struct{ zone, municipality, province string }
	seen := map[zoneKey]bool{}
	var unmatched []zoneKey
	for _, zp := range store.Polygons() {
		k := zoneKey{zp.Zone, zp.Municipality, zp.Province}
		if seen[k] {
			continue
		}
		seen[k] = true
		if store.Valuation(zp.Zone, zp.Municipality, zp.Province) == nil {
			unmatched = append(unmatched, k)
		}
	}
	fmt.Printf("Distinct zones:        %d\n", len(seen))
	fmt.Printf("Zones without values:  %d\n", len(unmatched))

	if len(unmatched) > 0 {
		sort.Slice(unmatched, func(i, j int) bool {
			if unmatched[i].municipality != unmatched[j].municipality {
				return unmatched[i].municipality < unmatched[j].municipality
			}
			return unmatched[i].zone < unmatched[j].zone
		})
		fmt.Println("\nZones with no residential values (boundary present, table row absent):")
		for i, k := range unmatched {
			if i == maxUnmatchedListed {
				fmt.Printf("  ... and %d more\n", len(unmatched)-maxUnmatchedListed)
				break
			}
			fmt.Printf("  %s %s (%s)\n", k.municipality, k.zone, k.province)
		}
	}

	fmt.Println("\nCheck complete.")
	return 0
}
