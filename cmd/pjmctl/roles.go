package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"pjm/internal/permission"

	"github.com/spf13/cobra"
)

var rolesCmd = &cobra.Command{
	Use:   "roles [role]",
	Short: "Print the capabilities each project role grants",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roles := permission.Roles()
		if len(args) == 1 {
			r := permission.ParseRole(args[0])
			if !r.IsValid() {
				return fmt.Errorf("unknown role %q", args[0])
			}
			roles = []permission.Role{r}
		}
		return writeRoleMatrix(cmd.OutOrStdout(), roles)
	},
}

func init() {
	rootCmd.AddCommand(rolesCmd)
}

func writeRoleMatrix(w io.Writer, roles []permission.Role) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprint(tw, "CAPABILITY")
	for _, r := range roles {
		fmt.Fprintf(tw, "\t%s", r)
	}
	fmt.Fprintln(tw)

	for _, c := range permission.Capabilities() {
		fmt.Fprint(tw, c)
		for _, r := range roles {
			mark := "-"
			if permission.ForRole(r).Has(c) {
				mark = "yes"
			}
			fmt.Fprintf(tw, "\t%s", mark)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
