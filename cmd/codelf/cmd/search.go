package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dasmlab/codelf/pkg/codelf"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	page       int
	langs      []string
	jsonOutput bool
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <words...>",
		Short: "Look up variable names for a query",
		Long: `Look up identifier names used in public source code.

Examples:
  codelf search 摄像头
  codelf search user name --lang Go --lang Python
  codelf search camera --page 2 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := loadClient(cmd, root)
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.RequestVariable(cmd.Context(), codelf.QueryOption{
				Query: strings.Join(args, " "),
				Page:  opts.page,
				Lang:  opts.langs,
			})
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return printVariables(cmd, res)
		},
	}

	cmd.Flags().IntVarP(&opts.page, "page", "p", 1, "Result page")
	cmd.Flags().StringSliceVarP(&opts.langs, "lang", "l", nil, "Restrict to a programming language (repeatable)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the result as JSON")

	return cmd
}

func printVariables(cmd *cobra.Command, res *codelf.VariableResult) error {
	out := cmd.OutOrStdout()
	if len(res.Suggestion) > 0 {
		fmt.Fprintf(out, "Suggestions: %s\n\n", strings.Join(res.Suggestion, ", "))
	}
	if len(res.VariableList) == 0 {
		_, err := fmt.Fprintln(out, "No variables found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEYWORD\tLANGUAGE\tREPOSITORY")
	for _, v := range res.VariableList {
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.Keyword, v.RepoLang, v.RepoLink)
	}
	return w.Flush()
}
