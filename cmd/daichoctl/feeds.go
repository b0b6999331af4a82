package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"daicho/internal/api"
	"daicho/internal/client"
)

// フラグの値を保持する変数
var (
	feedListProtocol string
	feedListPort     int
	feedListQuery    string
	feedListPage     int
	feedListPageSize int

	addFeedProtocol string
	addFeedPort     int
	addFeedPath     string
	addFeedRTSPHQ   bool
	addFeedRTSPLQ   bool
	addFeedHTTP     bool

	updFeedProtocol string
	updFeedPort     int
	updFeedPath     string
)

// 親コマンド
var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "カメラのフィードを管理する",
	Long:  `カメラに紐づく映像フィードの一覧、追加、更新、削除を行います。`,
}

var feedsListCmd = &cobra.Command{
	Use:   "list <camera-id>",
	Short: "フィードの一覧を表示する",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := client.FeedListOptions{
			Protocol:  feedListProtocol,
			Port:      feedListPort,
			PathQuery: feedListQuery,
			Page:      feedListPage,
			PageSize:  feedListPageSize,
		}

		feeds, err := newClient().ListFeeds(context.Background(), args[0], opts)
		if err != nil {
			fail("フィード一覧の取得に失敗しました: %v", err)
		}

		if jsonOutput {
			printJSON(feeds)
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "FEED ID\tPROTOCOL\tPORT\tPATH")
		fmt.Fprintln(w, "-------\t--------\t----\t----")
		for _, f := range feeds {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.FeedID, f.FeedProtocol, f.FeedPort, f.FeedPath)
		}
		w.Flush()
	},
}

var feedsAddCmd = &cobra.Command{
	Use:   "add <camera-id>",
	Short: "カメラにフィードを追加する",
	Long: `カメラに映像フィードを追加します。

プロトコルとポートを個別に指定するか、標準構成のショートカットを
使います。ショートカットのポート番号はサーバーの設定から取得されます。`,
	Example: `  daichoctl feeds add CAMERA_ID --protocol rtsp --port 554 --path /main
  daichoctl feeds add CAMERA_ID --rtsp-hq
  daichoctl feeds add CAMERA_ID --http-default --path /mjpeg`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		ctx := context.Background()

		protocol, port, err := resolveFeedShortcut(ctx, c, cmd)
		if err != nil {
			fail("%v", err)
		}
		if protocol == "" {
			protocol = addFeedProtocol
			port = addFeedPort
		}
		if protocol == "" || port == 0 {
			fail("--protocol と --port を指定するか、ショートカットを使ってください")
		}

		setup := api.VideoFeedSetup{
			FeedProtocol: protocol,
			FeedPort:     port,
		}
		if cmd.Flags().Changed("path") {
			setup.FeedPath = &addFeedPath
		}

		feed, err := c.AddFeed(ctx, args[0], setup)
		if err != nil {
			fail("フィードの追加に失敗しました: %v", err)
		}

		if jsonOutput {
			printJSON(feed)
			return
		}

		fmt.Printf("フィードを追加しました: %s (%s:%d%s)\n",
			feed.FeedID, feed.FeedProtocol, feed.FeedPort, feed.FeedPath)
	},
}

var feedsUpdateCmd = &cobra.Command{
	Use:   "update <camera-id> <feed-id>",
	Short: "フィードの属性を更新する",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		update := api.FeedUpdate{}
		if cmd.Flags().Changed("protocol") {
			update.FeedProtocol = &updFeedProtocol
		}
		if cmd.Flags().Changed("port") {
			update.FeedPort = &updFeedPort
		}
		if cmd.Flags().Changed("path") {
			update.FeedPath = &updFeedPath
		}

		feed, err := newClient().UpdateFeed(context.Background(), args[0], args[1], update)
		if err != nil {
			fail("フィードの更新に失敗しました: %v", err)
		}

		if jsonOutput {
			printJSON(feed)
			return
		}

		fmt.Printf("フィードを更新しました: %s (%s:%d%s)\n",
			feed.FeedID, feed.FeedProtocol, feed.FeedPort, feed.FeedPath)
	},
}

var feedsRemoveCmd = &cobra.Command{
	Use:   "remove <camera-id> <feed-id>",
	Short: "カメラからフィードを削除する",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := newClient().RemoveFeed(context.Background(), args[0], args[1]); err != nil {
			fail("フィードの削除に失敗しました: %v", err)
		}
		fmt.Println("フィードを削除しました")
	},
}

// resolveFeedShortcut はショートカットフラグをプロトコルとポートに解決する
// ポート番号はサーバーの /api/status が返す標準構成を使う
func resolveFeedShortcut(ctx context.Context, c *client.Client, cmd *cobra.Command) (string, int, error) {
	count := 0
	for _, set := range []bool{addFeedRTSPHQ, addFeedRTSPLQ, addFeedHTTP} {
		if set {
			count++
		}
	}
	if count == 0 {
		return "", 0, nil
	}
	if count > 1 {
		return "", 0, fmt.Errorf("ショートカットは1つだけ指定してください")
	}
	if cmd.Flags().Changed("protocol") || cmd.Flags().Changed("port") {
		return "", 0, fmt.Errorf("ショートカットと --protocol/--port は同時に指定できません")
	}

	status, err := c.ServiceStatus(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("サーバーの標準構成の取得に失敗しました: %w", err)
	}

	switch {
	case addFeedRTSPHQ:
		return "rtsp", status.FeedDefaults.RTSPHQPort, nil
	case addFeedRTSPLQ:
		return "rtsp", status.FeedDefaults.RTSPLQPort, nil
	default:
		return "http", status.FeedDefaults.HTTPPort, nil
	}
}

func init() {
	rootCmd.AddCommand(feedsCmd)

	feedsCmd.AddCommand(feedsListCmd)
	feedsCmd.AddCommand(feedsAddCmd)
	feedsCmd.AddCommand(feedsUpdateCmd)
	feedsCmd.AddCommand(feedsRemoveCmd)

	// 一覧の絞り込み
	feedsListCmd.Flags().StringVar(&feedListProtocol, "protocol", "", "プロトコルで絞り込む (rtsp/http)")
	feedsListCmd.Flags().IntVar(&feedListPort, "port", 0, "ポート番号で絞り込む")
	feedsListCmd.Flags().StringVar(&feedListQuery, "q", "", "パスの部分一致で絞り込む")
	feedsListCmd.Flags().IntVar(&feedListPage, "page", 0, "ページ番号 (デフォルト: 1)")
	feedsListCmd.Flags().IntVar(&feedListPageSize, "page-size", 0, "1ページあたりの件数 (デフォルト: 20)")

	// 追加
	feedsAddCmd.Flags().StringVar(&addFeedProtocol, "protocol", "", "フィードのプロトコル (rtsp/http)")
	feedsAddCmd.Flags().IntVar(&addFeedPort, "port", 0, "フィードのポート番号")
	feedsAddCmd.Flags().StringVar(&addFeedPath, "path", "/", "フィードのパス")
	feedsAddCmd.Flags().BoolVar(&addFeedRTSPHQ, "rtsp-hq", false, "高画質RTSPの標準構成で追加する")
	feedsAddCmd.Flags().BoolVar(&addFeedRTSPLQ, "rtsp-lq", false, "低画質RTSPの標準構成で追加する")
	feedsAddCmd.Flags().BoolVar(&addFeedHTTP, "http-default", false, "HTTPの標準構成で追加する")

	// 更新
	feedsUpdateCmd.Flags().StringVar(&updFeedProtocol, "protocol", "", "フィードのプロトコル (rtsp/http)")
	feedsUpdateCmd.Flags().IntVar(&updFeedPort, "port", 0, "フィードのポート番号")
	feedsUpdateCmd.Flags().StringVar(&updFeedPath, "path", "", "フィードのパス")
}
