package main

import (
	"log"

	"github.com/kilianp07/o2v/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
