// The main package for the faunascraper executable.
package main

import (
	"faunascraper/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
