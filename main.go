// file: main.go
// version: 2.0.0
// guid: 2d1f6a84-9c3b-4e57-a0d8-5b7e1c4f9a36

package main

import (
	"fmt"
	"os"

	"github.com/jdfalk/listings-engine/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
