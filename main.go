package main

import "github.com/rasalas/gitmsg/cmd"

func main() {
	cmd.Execute()
}
