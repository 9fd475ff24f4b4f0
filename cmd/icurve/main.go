// Command icurve advects integral curves through a synthetic partitioned vector
// field and writes them as polylines or scalar traces.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
