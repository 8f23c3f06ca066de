package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/tournee-registry/pkg/lookup"
)

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	file := fs.String("file", "", "CSV spreadsheet to import (defaults to watch_file)")
	url := fs.String("url", "", "download the CSV spreadsheet from this URL")
	fs.Parse(args)

	cfg, logger := mustConfig(*cfgPath)
	if *file == "" && *url == "" {
		*file = cfg.WatchFile
	}
	if *file == "" && *url == "" {
		fmt.Fprintln(os.Stderr, "Usage :")
		fmt.Fprintln(os.Stderr, "  tournee import --file <tournees.csv> [--config <config.yaml>]")
		fmt.Fprintln(os.Stderr, "  tournee import --url <https://...> [--config <config.yaml>]")
		os.Exit(1)
	}

	a, err := openApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erreur ouverture base: %v\n", err)
		os.Exit(1)
	}
	defer a.store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	source := *file
	if *url != "" {
		source = *url
		_, err = a.importer.ImportURL(ctx, *url)
	} else {
		_, err = a.importer.ImportFile(ctx, *file)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "[%s] ERREUR: %v\n", source, err)
		os.Exit(1)
	}

	imp, _, err := a.store.LastImport(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import log: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[%s] OK: %d tournées, %d lignes ignorées -> %s\n", source, imp.Rows, imp.Skipped, cfg.DBPath)
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	out := fs.String("o", "", "output file (default stdout)")
	fs.Parse(args)

	cfg, logger := mustConfig(*cfgPath)
	a, err := openApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erreur ouverture base: %v\n", err)
		os.Exit(1)
	}
	defer a.store.Close()

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Erreur: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	if err := a.importer.Export(context.Background(), bw); err != nil {
		fmt.Fprintf(os.Stderr, "Erreur export: %v\n", err)
		os.Exit(1)
	}
	if err := bw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Erreur export: %v\n", err)
		os.Exit(1)
	}
}

// cmdResolve prints the resolution of each word argument, or of each line of
// stdin when no word is given.
func cmdResolve(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	n := fs.Int("n", 3, "candidates to show per word")
	fs.Parse(args)

	cfg, logger := mustConfig(*cfgPath)
	a, err := openApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erreur ouverture base: %v\n", err)
		os.Exit(1)
	}
	defer a.store.Close()
	if err := a.registry.Reload(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Erreur chargement: %v\n", err)
		os.Exit(1)
	}

	words := fs.Args()
	if len(words) == 0 {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				words = append(words, line)
			}
		}
	}
	for _, word := range words {
		printResolution(a, word, *n)
	}
}

func printResolution(a *app, phrase string, n int) {
	res := a.registry.Lookup(phrase, lookup.Filter{})
	resolved := "-"
	if res.Outcome == lookup.OutcomeExact || res.Outcome == lookup.OutcomeFuzzy {
		resolved = res.Term
	}
	fmt.Printf("%-30s  %-20s -> %-20s  (%d tournées, seuil %.2f)\n",
		phrase, res.Keyword, resolved, len(res.Matches), a.registry.Threshold(res.Keyword))
	for _, c := range a.registry.Rank(res.Keyword, n) {
		fmt.Printf("    %-20s  dist=%d  phon=%-5v  freq=%-3d  score=%.3f\n",
			c.Token, c.Distance, c.Phonetic, c.Frequency, c.Score)
	}
}
