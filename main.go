// The main package for the newscheck executable.
package main

import (
	"github.com/newscheck/newscheck/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
