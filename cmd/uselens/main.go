package main

import "github.com/quietchord/uselens/internal/cli"

func main() {
	cli.Execute()
}
