// Package cli implements the isbn command line tool.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/iziplay/isbn-api/pkg/isbn"
	"github.com/spf13/pflag"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "dev"

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

type command int

const (
	commandDisplay command = iota
	commandChecksum
	commandConvert
	commandURL
	commandURN
)

type options struct {
	command command
	site    string
	country string
	prefix  string
	verbose bool
}

// Run executes the tool with args, not including the program name, and
// returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	f := pflag.NewFlagSet("isbn", pflag.ContinueOnError)
	f.SetOutput(stderr)
	f.Usage = func() {
		fmt.Fprintln(stderr, "Usage: isbn [flags] ISBN...")
		fmt.Fprintln(stderr, "Check, convert and link 10- and 13-digit ISBNs.")
		fmt.Fprintln(stderr)
		f.PrintDefaults()
	}

	checksum := f.BoolP("checksum", "c", false, "generate checksum")
	convert := f.BoolP("convert", "x", false, "convert between 10- and 13-digit types")
	site := f.StringP("to-url", "u", "", "generate URL for one of: "+strings.Join(isbn.DefaultSites.Names(), ", "))
	urn := f.BoolP("to-urn", "n", false, "generate RFC 3187 URN")
	country := f.String("country", isbn.DefaultCountry, "country for sites with regional domains")
	prefix := f.String("prefix", isbn.DefaultPrefix, "Bookland prefix used when converting ISBN-10s")
	verbose := f.BoolP("verbose", "v", false, "log each operation to stderr")
	version := f.Bool("version", false, "print the version and exit")

	if err := f.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	if *version {
		fmt.Fprintf(stdout, "isbn %s\n", Version)
		return ExitOK
	}

	opts := options{site: *site, country: *country, prefix: *prefix, verbose: *verbose}
	selected := 0
	for cmd, set := range map[command]bool{
		commandChecksum: *checksum,
		commandConvert:  *convert,
		commandURL:      f.Changed("to-url"),
		commandURN:      *urn,
	} {
		if set {
			opts.command = cmd
			selected++
		}
	}
	if selected > 1 {
		fmt.Fprintln(stderr, "isbn: only one of --checksum, --convert, --to-url and --to-urn may be given")
		return ExitUsage
	}
	if opts.command == commandURL {
		if _, ok := isbn.DefaultSites[opts.site]; !ok {
			fmt.Fprintf(stderr, "isbn: invalid choice for --to-url: %q (choose from %s)\n",
				opts.site, strings.Join(isbn.DefaultSites.Names(), ", "))
			return ExitUsage
		}
	}

	if f.NArg() == 0 {
		f.Usage()
		return ExitUsage
	}

	ids, err := parse(f.Args())
	if err != nil {
		fmt.Fprintf(stderr, "isbn: %s\n", err)
		return ExitUsage
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	code := ExitOK
	for _, id := range ids {
		res, err := opts.run(id)
		if err != nil {
			logger.Error("operation failed", "isbn", id.Raw(), "error", err)
			code = ExitError
			continue
		}
		logger.Debug("operation done", "isbn", id.Raw(), "result", res)
		fmt.Fprintln(stdout, res)
	}
	return code
}

// parse checks every argument before any is acted on. Each must be a full
// ISBN, or an SBN, with a matching check character.
func parse(args []string) ([]isbn.ISBN, error) {
	ids := make([]isbn.ISBN, 0, len(args))
	for _, arg := range args {
		id, err := isbn.New(arg)
		if err == nil {
			var ok bool
			if ok, err = isbn.Validate(arg); err == nil && !ok {
				return nil, fmt.Errorf("invalid checksum %q", arg)
			}
		}
		if err != nil {
			var ie *isbn.Error
			if errors.As(err, &ie) {
				return nil, fmt.Errorf("%s %q", ie.Reason, arg)
			}
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (o options) run(id isbn.ISBN) (string, error) {
	switch o.command {
	case commandChecksum:
		return id.Checksum(), nil
	case commandConvert:
		return id.ConvertWithPrefix(o.prefix)
	case commandURL:
		return id.URL(o.site, o.country)
	case commandURN:
		return id.URN(), nil
	default:
		return id.String(), nil
	}
}
