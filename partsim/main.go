// Command partsim estimates how long a partitioned layer graph takes to run
// on a set of devices.
package main

import "github.com/sarchlab/partsim/partsim/cmd"

func main() {
	cmd.Execute()
}
