package cmd

import (
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached responses older than a day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return nfx.purgeCache()
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect or clear the API rate limit locks",
	Long: `When a response reports that only a few API requests remain for the day,
nfx writes a lock file and refuses further requests to that API for 24 hours.
Cached results stay available while locked.`,
}

var lockStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the rate limit lock of each API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return nfx.lockStatus()
	},
}

var lockClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the rate limit locks",
	Long:  `Remove the rate limit locks. Requests made while the real quota is exhausted will fail until it resets.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return nfx.clearLocks()
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	lockCmd.AddCommand(lockStatusCmd, lockClearCmd)

	rootCmd.AddCommand(cacheCmd, lockCmd)
}
