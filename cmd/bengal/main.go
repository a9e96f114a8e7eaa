package main

import (
	"fmt"
	"os"

	"github.com/bengal-ssg/bengal/internal/build"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if build.IsStrictFailure(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
