/*
Package main is the entry point for the monetchat command.

All commands, including the local API server, live in internal/cli.
*/
package main

import "monetchat/internal/cli"

func main() {
	cli.Execute()
}
