package main

import "github.com/oshokin/server-keeper/cmd/server-keeper/cmd"

func main() {
	cmd.Execute()
}
