package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/kiwari-pos/terminal/internal/catalog"
	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/kiwari-pos/terminal/internal/pricing"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// CLI flags
	file := flag.String("file", "", "Catalog JSON file (defaults to the built-in menu)")
	category := flag.String("category", "", "Only list items in this category")
	query := flag.String("q", "", "Search item names and ids")
	quote := flag.Int("quote", 0, "Price one line of this item id")
	additions := flag.String("additions", "", "Comma-separated additions for -quote")
	quantity := flag.Int("qty", 1, "Quantity for -quote")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// Fall back to environment variables
	if *file == "" {
		*file = os.Getenv("CATALOG_FILE")
	}

	cat := catalog.Default()
	if *file != "" {
		var err error
		cat, err = catalog.Load(*file)
		if err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("invalid catalog")
		}
		log.Info().Str("file", *file).Msg("catalog is valid")
	}

	if *quote != 0 {
		if err := printQuote(cat, *quote, splitAdditions(*additions), *quantity); err != nil {
			log.Fatal().Err(err).Msg("quote failed")
		}
		return
	}

	items := cat.FilterItems(*category, *query)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", it.ID, it.Name, it.Category, it.Price.StringFixed(2))
	}
	tw.Flush()

	counts := cat.RoomCounts()
	log.Info().
		Int("items", len(items)).
		Int("rooms_available", counts.Available).
		Int("rooms_occupied", counts.Occupied).
		Msg("catalog summary")
}

func printQuote(cat *catalog.Catalog, itemID int, additions []string, quantity int) error {
	item, ok := cat.Item(itemID)
	if !ok {
		return fmt.Errorf("item %d not found", itemID)
	}
	quantity = max(quantity, 1)
	for _, a := range additions {
		if _, ok := cat.OptionPrice(enum.ModifierAdditions, a); !ok {
			log.Warn().Str("addition", a).Msg("unknown addition priced at zero")
		}
	}
	linePrice := pricing.ComputeLinePrice(cat, item.Price, additions, quantity)
	fmt.Printf("%s x%d: %s\n", item.Name, quantity, linePrice.StringFixed(2))
	return nil
}

func splitAdditions(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
