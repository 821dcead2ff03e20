// The main package for the catalogctl executable.
package main

import (
	"github.com/JakeFAU/grocery-catalog-crawler/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
