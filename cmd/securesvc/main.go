package main

import "securesvc-core/internal/cli/cmd"

func main() {
	cmd.Execute()
}
