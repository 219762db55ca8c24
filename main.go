package main

import "github.com/audiolibrelab/broadcastrec/cmd"

func main() {
	cmd.Execute()
}
