package cmd

import (
	"fmt"

	"github.com/jcdickinson/apiperms/internal/apidoc"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree <methods_f> <perms_f>",
	Short: "Print the package/class/method tree",
	Args:  cobra.ExactArgs(2),
	Run:   runTree,
}

func runTree(cmd *cobra.Command, args []string) {
	m := loadModel(args)
	fmt.Print(apidoc.Render(m.Packages))
}
