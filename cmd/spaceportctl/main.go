package main

import "github.com/ericfisherdev/spaceport/cmd/spaceportctl/cmd"

func main() {
	cmd.Execute()
}
