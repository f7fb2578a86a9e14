// Command wgsport converts container-store save profiles to the flat-file
// platform layout.
//
// Usage:
//
//	wgsport list -profile DIR
//	wgsport convert -profile DIR -out DIR -subdir NAME -template FILE
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/savetools/wgsport"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = runList(os.Args[2:])
	case "convert":
		err = runConvert(os.Args[2:])
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "wgsport:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `wgsport - container save store to flat-file save converter

Commands:
  list     -profile DIR [-app NAME]
           List the world saves in a profile directory.
  convert  -profile DIR -out DIR -subdir NAME -template FILE
           [-app NAME] [-codec zlib|lz4] [-workers N] [-v]
           Convert every world save into <out>/<subdir>. The destination
           subdirectory is deleted and recreated first.
`)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	profile := fs.String("profile", "", "profile directory holding containers.index")
	app := fs.String("app", wgsport.DefaultAppName, "expected application name")
	fs.Parse(args) //nolint:errcheck // ExitOnError

	if *profile == "" {
		return fmt.Errorf("-profile is required")
	}

	c, err := wgsport.New(wgsport.WithAppName(*app))
	if err != nil {
		return err
	}
	saves, err := c.List(*profile)
	if err != nil {
		return err
	}
	if len(saves) == 0 {
		fmt.Println("no world saves found")
		return nil
	}
	for _, s := range saves {
		fmt.Printf("%s\t%s\t%d bytes\n", s.Name, s.ModifiedAt.Format("2006-01-02 15:04:05"), s.Size)
	}
	return nil
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	profile := fs.String("profile", "", "profile directory holding containers.index")
	out := fs.String("out", "", "output root directory")
	subdir := fs.String("subdir", "", "profile subdirectory created under the output root")
	templatePath := fs.String("template", "", "captured template header file")
	app := fs.String("app", wgsport.DefaultAppName, "expected application name")
	codecName := fs.String("codec", "zlib", "payload codec: zlib or lz4")
	workers := fs.Int("workers", 1, "containers converted in parallel")
	verbose := fs.Bool("v", false, "enable debug logging")
	fs.Parse(args) //nolint:errcheck // ExitOnError

	for name, v := range map[string]string{
		"-profile": *profile, "-out": *out, "-subdir": *subdir, "-template": *templatePath,
	} {
		if v == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	var dec wgsport.DecompressFunc
	switch *codecName {
	case "zlib":
		dec = wgsport.Zlib
	case "lz4":
		dec = wgsport.LZ4Block
	default:
		return fmt.Errorf("unknown codec %q", *codecName)
	}

	template, err := wgsport.LoadTemplateHeader(*templatePath)
	if err != nil {
		return err
	}

	c, err := wgsport.New(
		wgsport.WithLogger(newLogger(*verbose)),
		wgsport.WithAppName(*app),
		wgsport.WithDecompressor(dec),
		wgsport.WithTemplateHeader(template),
		wgsport.WithWorkers(*workers),
	)
	if err != nil {
		return err
	}

	res, err := c.Convert(*profile, *out, *subdir)
	if err != nil {
		return err
	}

	fmt.Printf("converted %d world save(s)\n", len(res.Converted))
	if len(res.Failed) > 0 {
		for _, f := range res.Failed {
			fmt.Fprintln(os.Stderr, "failed:", f.Error())
		}
		return fmt.Errorf("%d of %d world save(s) failed",
			len(res.Failed), len(res.Failed)+len(res.Converted))
	}
	return nil
}
