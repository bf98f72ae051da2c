package main

import "github.com/deploymenttheory/go-zraid/cmd"

func main() {
	cmd.Execute()
}
