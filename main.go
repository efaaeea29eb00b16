package main

import "github.com/soundrooms/resonance/cmd"

func main() {
	cmd.Execute()
}
