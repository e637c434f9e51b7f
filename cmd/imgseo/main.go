package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"imgseo/internal/cli"
)

func main() {
	// Optional .env for IMGSEO_EXIFTOOL / IMGSEO_OUTPUT_DIR overrides.
	_ = godotenv.Load()

	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
