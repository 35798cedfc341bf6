package main

import "github.com/claimlab/apiserver/cmd"

func main() {
	cmd.Execute()
}
