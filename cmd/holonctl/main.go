// Command holonctl validates, stores and inspects holon descriptors.
package main

import "os"

func main() {
	if err := New().Execute(); err != nil {
		os.Exit(1)
	}
}
