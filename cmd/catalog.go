package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/nfx/unogs"
)

// newCmd represents the new command
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "List new releases",
	Long:  `List titles recently added to the Netflix catalog. Only movies are shown unless a filter says otherwise.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return nfx.listCollection(cmd.Context(), unogs.KindNew, filterExpr, preset)
	},
}

// expiringCmd represents the expiring command
var expiringCmd = &cobra.Command{
	Use:   "expiring",
	Short: "List expiring releases",
	Long:  `List titles about to leave the Netflix catalog, with their expiry date.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return nfx.listCollection(cmd.Context(), unogs.KindExpiring, filterExpr, preset)
	},
}

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <text...>",
	Short: "Search for movies",
	Long: `Search the catalog for movies with English audio. All arguments are joined
into one query, so quoting is optional:

  nfx search sin city`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return nfx.search(cmd.Context(), strings.Join(args, " "), rank)
	},
}

func init() {
	for _, c := range []*cobra.Command{newCmd, expiringCmd} {
		c.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
		c.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	}

	searchCmd.Flags().BoolVar(&rank, "rank", false, "order results by title similarity to the query")

	rootCmd.AddCommand(newCmd, expiringCmd, searchCmd)
}
