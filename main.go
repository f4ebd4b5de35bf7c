package main

import (
	"github.com/isoforge/isoforge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
