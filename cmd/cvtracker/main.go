// Package main provides the cvtracker CLI.
package main

import "github.com/mesh-intelligence/cvtracker/internal/cli"

func main() {
	cli.Execute()
}
