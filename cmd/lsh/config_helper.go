package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GetExplicitFlags returns a map of flags that were explicitly set by the user
func GetExplicitFlags(cmd *cobra.Command) map[string]bool {
	explicitFlags := make(map[string]bool)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		explicitFlags[f.Name] = true
	})
	return explicitFlags
}
