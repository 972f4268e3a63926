package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"omibyte.io/e310/board"
)

var (
	boardsOpts = struct {
		chips bool
	}{}

	boardsCmd = &cobra.Command{
		Use:   "boards",
		Short: "List the supported boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if boardsOpts.chips {
				fmt.Fprintln(out, strings.Join(board.Chips(), "\n"))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCHIP\tCORECLK\tTLCLK\tBAUD\tALARMS")
			for _, b := range board.All() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n",
					b.Name, b.Chip, b.CoreClock, b.TLClock, b.UART.Baud, b.Timer.Alarms)
			}
			return w.Flush()
		},
	}
)

func init() {
	boardsCmd.Flags().BoolVar(&boardsOpts.chips, "chips", false, "list the distinct chips instead")
}
