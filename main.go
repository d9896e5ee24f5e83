package main

import "lockgraphx/cmd"

func main() {
	cmd.Execute()
}
