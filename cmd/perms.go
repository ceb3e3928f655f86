package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/jcdickinson/apiperms/internal/perms"
	"github.com/jcdickinson/apiperms/internal/rpc"
	"github.com/spf13/cobra"
)

var permsCmd = &cobra.Command{
	Use:   "perms <methods_f> <perms_f>",
	Short: "List permissions and their protection levels",
	Example: `  apiperms perms methods.csv permissions.csv
  apiperms perms --level dangerous methods.csv permissions.csv
  apiperms perms --groups --json methods.csv permissions.csv`,
	Args: cobra.ExactArgs(2),
	Run:  runPerms,
}

var (
	permsLevel  string
	permsGroups bool
	permsJSON   bool
)

func init() {
	permsCmd.Flags().StringVar(&permsLevel, "level", "", "only show this protection level (normal, signature, dangerous)")
	permsCmd.Flags().BoolVar(&permsGroups, "groups", false, "only show permission groups")
	permsCmd.Flags().BoolVar(&permsJSON, "json", false, "output as JSON")
}

func runPerms(cmd *cobra.Command, args []string) {
	var level perms.Level
	if permsLevel != "" {
		var ok bool
		if level, ok = perms.ParseLevel(permsLevel); !ok {
			slog.Error("unknown protection level", "level", permsLevel)
			os.Exit(1)
		}
	}

	m := loadModel(args)

	var list []perms.Permission
	switch {
	case permsGroups:
		list = m.Permissions.Groups()
	case level != "":
		list = m.Permissions.Filter(level)
	default:
		list = m.Permissions.Sorted()
	}
	if permsGroups && level != "" {
		filtered := list[:0]
		for _, p := range list {
			if p.Level == level {
				filtered = append(filtered, p)
			}
		}
		list = filtered
	}

	if permsJSON {
		out, _ := json.MarshalIndent(rpc.NewPermissionList(list), "", "  ")
		fmt.Println(string(out))
		return
	}

	if len(list) == 0 {
		fmt.Println("no permissions")
		return
	}
	for _, p := range list {
		group := ""
		if p.IsGroup {
			group = "group"
		}
		fmt.Printf("%-40s%-20s%-20s\n", p.Name, p.Level, group)
	}
}
