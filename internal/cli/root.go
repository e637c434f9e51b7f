package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "process":
		return runProcess(args[1:])
	case "edit":
		return runEdit(args[1:])
	case "inspect":
		return runInspect(args[1:])
	case "profile":
		return runProfile(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("imgseo: batch image optimizer for web publishing")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  imgseo profile init")
	fmt.Println("  imgseo edit")
	fmt.Println("  imgseo process --profile imgseo.json")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  process   run the batch: transform, write outputs, apply metadata")
	fmt.Println("  edit      interactive work-list editor and run monitor")
	fmt.Println("  inspect   dump the embedded metadata of a produced file")
	fmt.Println("  profile   init|show the profile JSON")
	fmt.Println("  doctor    run exiftool and output directory preflight checks")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on process/doctor for machine-readable output")
	fmt.Println("  - IMGSEO_EXIFTOOL and IMGSEO_OUTPUT_DIR override profile values")
}
