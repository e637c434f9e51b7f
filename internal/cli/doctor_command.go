package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"imgseo/internal/exiftool"
	"imgseo/internal/profile"
)

type doctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type doctorReport struct {
	OK     bool          `json:"ok"`
	Checks []doctorCheck `json:"checks"`
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	profilePath := fs.String("profile", DefaultProfilePath, "profile JSON path")
	exiftoolBin := fs.String("exiftool", "", "exiftool binary override")
	outDir := fs.String("out", "", "output directory override")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	bin := firstNonEmpty(strings.TrimSpace(*exiftoolBin), os.Getenv("IMGSEO_EXIFTOOL"))
	dir := firstNonEmpty(strings.TrimSpace(*outDir), os.Getenv("IMGSEO_OUTPUT_DIR"))

	res := doctorReport{OK: true}
	push := func(name string, ok bool, msg string) {
		res.Checks = append(res.Checks, doctorCheck{Name: name, OK: ok, Message: msg})
		if !ok {
			res.OK = false
		}
	}

	p, err := profile.Load(strings.TrimSpace(*profilePath))
	switch {
	case err == nil:
		push("profile", true, fmt.Sprintf("%s (%d work items)", *profilePath, len(p.Items)))
		bin = firstNonEmpty(bin, p.ExiftoolBin)
		dir = firstNonEmpty(dir, p.OutputDir)
	case errors.Is(err, os.ErrNotExist):
		push("profile", true, fmt.Sprintf("%s not found (optional; run `imgseo profile init`)", *profilePath))
	default:
		push("profile", false, err.Error())
	}

	client := exiftool.NewClient(bin)
	if err := client.CheckBinary(); err != nil {
		push("exiftool", false, err.Error())
	} else if ver, err := client.Version(); err != nil {
		push("exiftool", false, "found but not runnable: "+err.Error())
	} else {
		push("exiftool", true, fmt.Sprintf("%s version %s", client.Bin, ver))
	}

	if strings.TrimSpace(dir) == "" {
		push("output_dir", false, "no output directory configured")
	} else if err := checkDirWritable(dir); err != nil {
		push("output_dir", false, err.Error())
	} else {
		push("output_dir", true, dir+" is writable")
	}

	if *jsonOut {
		return printJSON(res)
	}
	for _, c := range res.Checks {
		status := "ok"
		if !c.OK {
			status = "fail"
		}
		fmt.Printf("%s: %s (%s)\n", c.Name, status, c.Message)
	}
	if !res.OK {
		return errors.New("doctor checks failed")
	}
	fmt.Println("doctor: all checks passed")
	return nil
}

// checkDirWritable creates the directory if needed and proves writability
// with a throwaway file.
func checkDirWritable(dir string) error {
	if err := profile.Mkdir(dir); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".imgseo-doctor-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}
