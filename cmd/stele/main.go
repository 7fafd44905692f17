package main

import "github.com/oneconcern/stele/cmd/stele/cmd"

func main() {
	cmd.Execute()
}
