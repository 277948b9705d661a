package main

import "github.com/hoppxi/dusk/internal/cmd"

func main() {
	cmd.Execute()
}
