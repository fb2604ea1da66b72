package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/webhook-inspector/templates"
)

/* validate-templates - Standalone CLI tool to validate a templates file
 * Usage: go run cmd/validate-templates/main.go [templates.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	file := "templates.yaml"
	if len(os.Args) > 1 {
		file = os.Args[1]
	}

	fmt.Printf("Validating templates file: %s\n", file)
	fmt.Println(strings.Repeat("-", 50))

	catalog := templates.NewCatalog()
	if err := catalog.Load(file); err != nil {
		fmt.Fprintf(os.Stderr, "VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	loaded := catalog.List()
	fmt.Printf("VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d template(s), default %q:\n", len(loaded), catalog.Default())

	for i, tpl := range loaded {
		fmt.Printf("\n%d. Template: %s\n", i+1, tpl.Name)
		fmt.Printf("   Language: %s\n", tpl.Language)
		fmt.Printf("   Fence:    %s\n", tpl.Fence)
		fmt.Printf("   Instructions: %d chars\n", len(tpl.Instructions))
	}

	fmt.Printf("\nAll templates are valid!\n")
	os.Exit(0)
}
