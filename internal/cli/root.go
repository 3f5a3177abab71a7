package cli

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

var version = "dev"

func init() {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok &&
			info.Main.Version != "" &&
			info.Main.Version != "(devel)" {
			version = strings.TrimPrefix(info.Main.Version, "v")
		}
	}
}

// NewRootCmd creates the root cobra command for the ns CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ns",
		Short: "News server CLI",
		Long:  "News server CLI: serves articles and their comments.\n\nClient commands read NS_URL (default http://localhost:8000) and NS_ADMIN_TOKEN from the environment or .env.",
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if !showVersion {
				return cmd.Help()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "client: %s\n", version)
			serverVersion := "unavailable"
			if c, err := NewClientFromEnv(); err == nil {
				if data, err := c.Do("GET", "/api/v1/version", nil); err == nil {
					var v struct {
						Version string `json:"version"`
					}
					if json.Unmarshal(data, &v) == nil && v.Version != "" {
						serverVersion = v.Version
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "server: %s\n", serverVersion)
			return nil
		},
	}

	root.Flags().BoolP("version", "v", false, "show version information")
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddGroup(
		&cobra.Group{ID: "server", Title: "Server Commands:"},
		&cobra.Group{ID: "client", Title: "Client Commands:"},
	)

	serveCmd := newServeCmd()
	serveCmd.GroupID = "server"
	root.AddCommand(serveCmd)

	for _, cmd := range []*cobra.Command{
		newTotalCmd(),
		newCommentCmd(),
		newShowCmd(),
		newCleanCmd(),
	} {
		cmd.GroupID = "client"
		root.AddCommand(cmd)
	}

	return root
}
