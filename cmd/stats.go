package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/jcdickinson/apiperms/internal/perms"
	"github.com/jcdickinson/apiperms/internal/rpc"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <methods_f> <perms_f>",
	Short: "Show counts for the API tree and the permission set",
	Args:  cobra.ExactArgs(2),
	Run:   runStats,
}

var statsJSON bool

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) {
	m := loadModel(args)
	resp := rpc.NewStatsResponse(m)

	if statsJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return
	}

	fmt.Printf("  packages:     %d\n", resp.Packages)
	fmt.Printf("  classes:      %d\n", resp.Classes)
	fmt.Printf("  methods:      %d\n", resp.Methods)
	fmt.Printf("  permissions:  %d (%d groups)\n", resp.Permissions, resp.Groups)
	for _, l := range perms.Levels {
		fmt.Printf("    %-10s  %d\n", l, resp.ByLevel[string(l)])
	}
}
