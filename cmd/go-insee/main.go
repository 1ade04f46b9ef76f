package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/automaxprocs/maxprocs"
)

func simpleLogger(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
}

func init() {
	time.Local = time.UTC

	if _, err := maxprocs.Set(maxprocs.Logger(simpleLogger)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set maxprocs using package go.uber.org/automaxprocs/maxprocs: %v\n", err)
	}
}

func main() {
	Execute()
}
