package commands

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/xscrape/pkg/scraper"
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search posts",
	Long: `Search posts and write them as records.

The query accepts the site's search operators, for example
"from:golang since:2026-01-01" or "#go -filter:replies".`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	flags := searchCmd.Flags()
	flags.IntP("limit", "n", 20, "maximum posts to return (0 = until scrolling stops)")
	flags.Bool("latest", false, "newest first instead of top results")
	addOutputFlags(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	latest, _ := cmd.Flags().GetBool("latest")

	w, err := openOutput(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(interactiveResponder())
	if err != nil {
		_ = w.Close()
		return err
	}
	defer a.Close()

	logInfo("Searching for %q...", args[0])
	posts, err := a.scraper.SearchPosts(ctx, args[0], scraper.SearchOptions{Limit: limit, Latest: latest})
	for _, p := range posts {
		if werr := w.Write(p); werr != nil {
			_ = w.Close()
			return werr
		}
	}
	if cerr := w.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	logInfo("Wrote %d posts", len(posts))
	return nil
}
