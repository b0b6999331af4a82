package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "サーバーの稼働情報を表示する",
	Run: func(cmd *cobra.Command, args []string) {
		status, err := newClient().ServiceStatus(context.Background())
		if err != nil {
			fail("稼働情報の取得に失敗しました: %v", err)
		}

		if jsonOutput {
			printJSON(status)
			return
		}

		fmt.Printf("status:   %s\n", status.Status)
		fmt.Printf("version:  %s\n", status.Version)
		fmt.Printf("address:  %s:%d\n", status.Server.Host, status.Server.Port)
		fmt.Printf("cameras:  %d\n", status.Cameras)
		fmt.Printf("defaults: rtsp-hq=%d rtsp-lq=%d http=%d\n",
			status.FeedDefaults.RTSPHQPort,
			status.FeedDefaults.RTSPLQPort,
			status.FeedDefaults.HTTPPort,
		)
		fmt.Printf("uptime:   %.0fs\n", status.UptimeSeconds)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "サーバーの死活状態を確認する",
	Run: func(cmd *cobra.Command, args []string) {
		health, err := newClient().Health(context.Background())
		if err != nil {
			fail("死活確認に失敗しました: %v", err)
		}

		if jsonOutput {
			printJSON(health)
			return
		}

		fmt.Println(health.Status)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(healthCmd)
}
