package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/chrissnell/tempwatch/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	// Load YAML configuration
	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlConfig, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	// Load SQLite configuration
	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	mismatches := compareConfigs(yamlConfig, sqliteConfig)
	for _, r := range mismatches {
		fmt.Println(r)
	}

	fmt.Println("\nTest completed!")
	if len(mismatches) > 0 {
		os.Exit(1)
	}
}

// compareConfigs returns one line per section that differs between the two configurations
func compareConfigs(yaml, sqlite *config.ConfigData) []string {
	var mismatches []string

	fmt.Printf("Cities - YAML: %d, SQLite: %d\n", len(yaml.Cities), len(sqlite.Cities))
	if len(yaml.Cities) != len(sqlite.Cities) {
		mismatches = append(mismatches, "✗ City count mismatch")
	} else {
		for i := range yaml.Cities {
			if yaml.Cities[i] != sqlite.Cities[i] {
				mismatches = append(mismatches, fmt.Sprintf("✗ City %s differs", yaml.Cities[i].Name))
			}
		}
	}

	if !reflect.DeepEqual(yaml.Storage, sqlite.Storage) {
		mismatches = append(mismatches, "✗ Storage configuration differs")
	}

	fmt.Printf("Controllers - YAML: %d, SQLite: %d\n", len(yaml.Controllers), len(sqlite.Controllers))
	if len(yaml.Controllers) != len(sqlite.Controllers) {
		mismatches = append(mismatches, "✗ Controller count mismatch")
	} else {
		for i := range yaml.Controllers {
			if !reflect.DeepEqual(yaml.Controllers[i], sqlite.Controllers[i]) {
				mismatches = append(mismatches, fmt.Sprintf("✗ Controller %s differs", yaml.Controllers[i].Type))
			}
		}
	}

	if yaml.Analysis != sqlite.Analysis {
		mismatches = append(mismatches, "✗ Analysis configuration differs")
	}

	return mismatches
}
