// Command dwgimport surveys and parses DWG drawings from the command line.
//
//	dwgimport survey plan.dwg
//	dwgimport parse plan.dwg --layers walls,doors
//	dwgimport parse plan.dwg --interactive
//	dwgimport providers
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		if !errors.Is(err, errUnsuccessful) {
			fmt.Fprintln(os.Stderr, "dwgimport:", err)
		}
		os.Exit(1)
	}
}
