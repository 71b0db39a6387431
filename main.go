package main

import "github.com/tanq16/dltime/cmd"

func main() {
	cmd.Execute()
}
