package main

import "github.com/aldertree/strataplay/cmd"

func main() {
	cmd.Execute()
}
