package main

import "github.com/fakeyudi/tsync/cmd"

func main() {
	cmd.Execute()
}
