package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/five82/difm/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	username := flag.String("u", "", "account email or username")
	password := flag.String("p", "", "account password")
	quality := flag.String("quality", "", "stream quality, e.g. premium_high or public3 (saved as the new default)")
	remember := flag.Bool("remember", false, "save -u and -p after a successful sign-in")
	artworkPath := flag.String("artwork", "", "write the station's artwork to this file")
	browse := flag.Bool("browse", false, "open the interactive channel browser")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: difm [flags] <station name>\n       difm [flags] -browse\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := app.Run(ctx, app.Options{
		ConfigPath:  *configPath,
		Username:    *username,
		Password:    *password,
		Quality:     *quality,
		Remember:    *remember,
		ArtworkPath: *artworkPath,
		Browse:      *browse,
		Station:     strings.Join(flag.Args(), " "),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "difm: %v\n", err)
	}
	return app.ExitCode(err)
}
