// Command daybrief assembles news briefings on demand and on a schedule.
package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("Error: loading .env: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
