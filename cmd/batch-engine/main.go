package main

import "batch-engine/cmd"

func main() {
	cmd.Execute()
}
