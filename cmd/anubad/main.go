package main

import (
	"os"

	"horse.fit/anubad/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
