package main

import "github.com/chowkart/chowkart/cmd"

func main() {
	cmd.Execute()
}
