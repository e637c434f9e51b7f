package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"imgseo/internal/exiftool"
)

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	exiftoolBin := fs.String("exiftool", "", "exiftool binary override")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("inspect requires at least one file path")
	}

	bin := firstNonEmpty(strings.TrimSpace(*exiftoolBin), os.Getenv("IMGSEO_EXIFTOOL"))
	client := exiftool.NewClient(bin)
	if err := client.CheckBinary(); err != nil {
		return err
	}

	var firstErr error
	for _, path := range fs.Args() {
		dump, err := client.Dump(path)
		if err != nil {
			fmt.Printf("== %s ==\nerror: %v\n", path, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if strings.TrimSpace(dump) == "" {
			dump = "(no descriptive tags present)"
		}
		fmt.Printf("== %s ==\n%s\n", path, dump)
	}
	return firstErr
}
