package main

import "github.com/hookgw/hookgw/cmd"

func main() {
	cmd.Execute()
}
