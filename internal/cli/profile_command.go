package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"imgseo/internal/profile"
)

func runProfile(args []string) error {
	if len(args) == 0 {
		return errors.New("profile requires a subcommand: init or show")
	}
	switch args[0] {
	case "init":
		return runProfileInit(args[1:])
	case "show":
		return runProfileShow(args[1:])
	default:
		return fmt.Errorf("unknown profile subcommand %q (want init or show)", args[0])
	}
}

func runProfileInit(args []string) error {
	fs := flag.NewFlagSet("profile init", flag.ContinueOnError)
	path := fs.String("profile", DefaultProfilePath, "profile JSON path")
	outDir := fs.String("out", "", "output directory (default \"salida\")")
	force := fs.Bool("force", false, "overwrite an existing profile")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := strings.TrimSpace(*path)
	if _, err := os.Stat(target); err == nil && !*force {
		return fmt.Errorf("profile %s already exists (use --force to replace)", target)
	}

	p := profile.New()
	if dir := strings.TrimSpace(*outDir); dir != "" {
		p.OutputDir = dir
	}
	if err := profile.Save(target, p); err != nil {
		return err
	}
	fmt.Printf("profile written: %s\n", target)
	fmt.Println("next: `imgseo edit` to build the work list, or edit the JSON directly")
	return nil
}

func runProfileShow(args []string) error {
	fs := flag.NewFlagSet("profile show", flag.ContinueOnError)
	path := fs.String("profile", DefaultProfilePath, "profile JSON path")
	jsonOut := fs.Bool("json", false, "print the normalized profile as JSON")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := profile.Load(strings.TrimSpace(*path))
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(p)
	}

	fmt.Println(kv("exiftool", p.ExiftoolBin))
	fmt.Println(kv("output_dir", p.OutputDir))
	fmt.Println(kv("jpg_quality", fmt.Sprintf("%d", p.Config.JPEGQuality)))
	fmt.Println(kv("webp_quality", fmt.Sprintf("%d", p.Config.WEBPQuality)))
	fmt.Println(kv("max_width", fmt.Sprintf("%d", p.Config.MaxWidth)))
	fmt.Println(kv("max_height", fmt.Sprintf("%d", p.Config.MaxHeight)))
	fmt.Println(kv("flatten_white", yesNo(p.Config.FlattenWhite)))
	fmt.Println(kv("convert_to_jpeg", yesNo(p.Config.ConvertToJPEG)))
	fmt.Println(kv("make_webp", yesNo(p.Config.MakeWebp)))
	fmt.Println(kv("strip_metadata", yesNo(p.Config.StripMetadata)))
	fmt.Println(kv("force_dpi96", yesNo(p.Config.ForceDPI96)))
	fmt.Println(kv("delete_source", yesNo(p.Config.DeleteSource)))
	fmt.Println(kv("overwrite", yesNo(p.Config.Overwrite)))
	fmt.Println(kv("rename_after_meta", yesNo(p.Config.RenameAfterMeta)))
	fmt.Println(kv("author", defaultIfEmpty(p.Defaults.Author, "(unset)")))
	fmt.Println(kv("work_items", fmt.Sprintf("%d", len(p.Items))))
	for _, it := range p.Items {
		fmt.Printf("  - %s\n", it.SourcePath)
	}
	return nil
}
