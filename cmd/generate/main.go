package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/keel-lab/keel-trading/internal/strategy"
)

// outputDir is where the JSON schema of every registered strategy's config
// is written, one file per strategy.
const outputDir = "./schemas"

func main() {
	registry, err := strategy.NewDefaultRegistry()
	if err != nil {
		log.Fatalf("Failed to build strategy registry: %v", err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	for _, name := range registry.Names() {
		strat, err := registry.Create(name)
		if err != nil {
			log.Fatalf("Failed to create strategy %s: %v", name, err)
		}

		schema, err := strat.ConfigSchema()
		if err != nil {
			log.Fatalf("Failed to generate schema for %s: %v", name, err)
		}

		schemaPath := filepath.Join(outputDir, name+".schema.json")
		if err := os.WriteFile(schemaPath, []byte(schema), 0644); err != nil {
			log.Fatalf("Failed to write schema to file: %v", err)
		}

		log.Printf("Schema for %s generated at %s", name, schemaPath)
	}
}
