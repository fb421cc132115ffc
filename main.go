package main

import "github.com/certhook/certhook/cmd"

func main() {
	cmd.Execute()
}
