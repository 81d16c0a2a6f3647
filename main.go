package main

import (
	"os"

	"github.com/unitdag/unitd/app"
)

func main() {
	if err := app.StartApp(); err != nil {
		os.Exit(1)
	}
}
