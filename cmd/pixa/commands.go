package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pders01/pixa/internal/browse"
	"github.com/pders01/pixa/internal/catalog"
	"github.com/pders01/pixa/internal/debuglog"
	"github.com/pders01/pixa/internal/pixabay"
	"github.com/pders01/pixa/internal/search"
	"github.com/pders01/pixa/internal/storage"
)

var searchOpts struct {
	page        int
	category    string
	order       string
	orientation string
	imageType   string
	colors      string
	json        bool
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search Pixabay without starting the interface",
	Long: `Runs one request with the same parameters the browser would send and
prints the hits. Without a query the popular images are listed.`,
	RunE: runSearch,
}

var downloadsOpts struct {
	limit int
}

var downloadsCmd = &cobra.Command{
	Use:   "downloads [query]",
	Short: "List or search downloaded images",
	RunE:  runDownloads,
}

func init() {
	f := searchCmd.Flags()
	f.IntVar(&searchOpts.page, "page", 1, "Result page")
	f.StringVar(&searchOpts.category, "category", "", "Category, e.g. nature")
	f.StringVar(&searchOpts.order, "order", "", "popular or latest")
	f.StringVar(&searchOpts.orientation, "orientation", "", "horizontal or vertical")
	f.StringVar(&searchOpts.imageType, "type", "", "photo, illustration or vector")
	f.StringVar(&searchOpts.colors, "colors", "", "Color filter, e.g. red")
	f.BoolVar(&searchOpts.json, "json", false, "Print the raw response as JSON")

	downloadsCmd.Flags().IntVar(&downloadsOpts.limit, "limit", 50, "Maximum number of search results")
}

// searchParams builds the request parameters and checks them against the catalog.
func searchParams(c *catalog.Catalog, args []string) (browse.Params, error) {
	p := browse.Params{
		Page:     searchOpts.page,
		Query:    strings.TrimSpace(strings.Join(args, " ")),
		Category: searchOpts.category,
	}
	if p.Page < 1 {
		return p, fmt.Errorf("page must be at least 1")
	}
	if p.Category != "" && !c.IsCategory(p.Category) {
		return p, fmt.Errorf("unknown category %q", p.Category)
	}
	var f browse.Filters
	f = f.With(browse.FilterOrder, searchOpts.order)
	f = f.With(browse.FilterOrientation, searchOpts.orientation)
	f = f.With(browse.FilterType, searchOpts.imageType)
	f = f.With(browse.FilterColors, searchOpts.colors)
	if err := f.Validate(c); err != nil {
		return p, err
	}
	p.Filters = f.Normalize()
	return p, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debuglog.Close()

	params, err := searchParams(catalog.Default(), args)
	if err != nil {
		return err
	}

	var opts []pixabay.Option
	// The cache is optional here; a running browser holds the database.
	if store, err := openStore(cfg); err == nil {
		defer store.Close()
		opts = append(opts, pixabay.WithCache(store))
	} else {
		debuglog.Warnf("searching without response cache: %v", err)
	}
	client := pixabay.NewClient(cfg.API, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resp, err := client.Search(ctx, params.Values())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchOpts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return printHits(out, resp, params.Page)
}

func printHits(out io.Writer, resp *pixabay.Response, page int) error {
	if len(resp.Hits) == 0 {
		_, err := fmt.Fprintln(out, "No results")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSIZE\tLIKES\tUSER\tTAGS")
	for _, img := range resp.Hits {
		fmt.Fprintf(tw, "%d\t%dx%d\t%d\t%s\t%s\n", img.ID, img.ImageWidth, img.ImageHeight, img.Likes, img.User, img.Tags)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\npage %d: %d of %d hits\n", page, len(resp.Hits), resp.TotalHits)
	return err
}

func runDownloads(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debuglog.Close()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var downloads []*storage.Download
	query := strings.TrimSpace(strings.Join(args, " "))
	if len([]rune(query)) >= search.MinQueryLength {
		searcher := openSearcher(cfg, store)
		defer closeSearcher(searcher)
		results, err := searcher.Search(query, downloadsOpts.limit)
		if err != nil {
			return fmt.Errorf("searching downloads: %w", err)
		}
		for _, r := range results {
			downloads = append(downloads, r.Download)
		}
	} else {
		if downloads, err = store.GetAllDownloads(); err != nil {
			return fmt.Errorf("loading downloads: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if len(downloads) == 0 {
		_, err := fmt.Fprintln(out, "No downloads")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tPATH\tTAGS")
	for _, d := range downloads {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.Image.ID, d.DownloadedAt.Format("2006-01-02 15:04"), d.Path, d.Image.Tags)
	}
	return tw.Flush()
}
