package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"daicho/internal/api"
	"daicho/internal/client"
)

// フラグの値を保持する変数
var (
	camModel    string
	camIPFrom   string
	camIPTo     string
	camOnline   string
	camPage     int
	camPageSize int

	addCamName       string
	addCamModel      string
	addCamIP         string
	addCamBrightness int
	addCamContrast   int
	addCamSaturation int

	updCamName       string
	updCamModel      string
	updCamIP         string
	updCamBrightness int
	updCamContrast   int
	updCamSaturation int
)

// 親コマンド
var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "カメラを管理する",
	Long:  `台帳に登録されたカメラの一覧、登録、更新、削除、状態確認を行います。`,
}

var camerasListCmd = &cobra.Command{
	Use:   "list",
	Short: "カメラの一覧を表示する",
	Run: func(cmd *cobra.Command, args []string) {
		opts := client.CameraListOptions{
			Model:    camModel,
			IPFrom:   camIPFrom,
			IPTo:     camIPTo,
			Page:     camPage,
			PageSize: camPageSize,
		}
		if camOnline != "" {
			online, err := strconv.ParseBool(camOnline)
			if err != nil {
				fail("--online にはtrueまたはfalseを指定してください")
			}
			opts.Online = &online
		}

		cams, err := newClient().ListCameras(context.Background(), opts)
		if err != nil {
			fail("カメラ一覧の取得に失敗しました: %v", err)
		}

		if jsonOutput {
			printJSON(cams)
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMODEL\tIP\tFEEDS\tLAST CHECKIN")
		fmt.Fprintln(w, "--\t----\t-----\t--\t-----\t------------")
		for _, cam := range cams {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				cam.CameraID,
				cam.CameraName,
				cam.CameraModel,
				cam.NetworkSetup.IPAddress,
				len(cam.AvailableFeeds),
				formatCheckin(cam.LastKnownCheckin),
			)
		}
		w.Flush()
	},
}

var camerasGetCmd = &cobra.Command{
	Use:   "get <camera-id>",
	Short: "カメラの詳細を表示する",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cam, err := newClient().GetCamera(context.Background(), args[0])
		if err != nil {
			fail("カメラの取得に失敗しました: %v", err)
		}

		if jsonOutput {
			printJSON(cam)
			return
		}

		printCameraDetails(cam)
	},
}

var camerasAddCmd = &cobra.Command{
	Use:   "add",
	Short: "カメラを登録する",
	Example: `  daichoctl cameras add --name "玄関" --model "AXIS M3065" --ip 192.168.1.20
  daichoctl cameras add --name "駐車場" --model "TP-Link C200" --ip 192.168.1.21 --brightness 70`,
	Run: func(cmd *cobra.Command, args []string) {
		data := api.NewCameraData{
			CameraName:  addCamName,
			CameraModel: addCamModel,
			NetworkSetup: api.CameraNetworkInfo{
				IPAddress: addCamIP,
			},
		}
		data.ImageSettings = imageInput(cmd, addCamBrightness, addCamContrast, addCamSaturation)

		cam, err := newClient().AddCamera(context.Background(), data)
		if err != nil {
			fail("カメラの登録に失敗しました: %v", err)
		}

		if jsonOutput {
			printJSON(cam)
			return
		}

		fmt.Printf("カメラを登録しました: %s\n", cam.CameraID)
	},
}

var camerasUpdateCmd = &cobra.Command{
	Use:   "update <camera-id>",
	Short: "カメラの属性を更新する",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		update := api.CameraUpdate{}
		if cmd.Flags().Changed("name") {
			update.CameraName = &updCamName
		}
		if cmd.Flags().Changed("model") {
			update.CameraModel = &updCamModel
		}
		if cmd.Flags().Changed("ip") {
			update.NetworkSetup = &api.CameraNetworkInfo{IPAddress: updCamIP}
		}
		update.ImageSettings = imageInput(cmd, updCamBrightness, updCamContrast, updCamSaturation)

		cam, err := newClient().UpdateCamera(context.Background(), args[0], update)
		if err != nil {
			fail("カメラの更新に失敗しました: %v", err)
		}

		if jsonOutput {
			printJSON(cam)
			return
		}

		printCameraDetails(cam)
	},
}

var camerasRemoveCmd = &cobra.Command{
	Use:   "remove <camera-id>",
	Short: "カメラを台帳から削除する",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := newClient().RemoveCamera(context.Background(), args[0]); err != nil {
			fail("カメラの削除に失敗しました: %v", err)
		}
		fmt.Println("カメラを削除しました")
	},
}

var camerasHeartbeatCmd = &cobra.Command{
	Use:   "heartbeat <camera-id>",
	Short: "カメラの生存確認時刻を更新する",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := newClient().Heartbeat(context.Background(), args[0]); err != nil {
			fail("ハートビートの送信に失敗しました: %v", err)
		}
		fmt.Println("ハートビートを記録しました")
	},
}

var camerasStatusCmd = &cobra.Command{
	Use:   "status <camera-id>",
	Short: "カメラのオンライン状態を表示する",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		state, err := newClient().CameraStatus(context.Background(), args[0])
		if err != nil {
			fail("状態の取得に失敗しました: %v", err)
		}

		if jsonOutput {
			printJSON(state)
			return
		}

		label := "offline"
		if state.IsOnline {
			label = "online"
		}
		fmt.Printf("camera:       %s\n", state.CameraID)
		fmt.Printf("state:        %s\n", label)
		fmt.Printf("last checkin: %s\n", formatCheckin(state.LastKnownCheckin))
	},
}

// imageInput は変更されたフラグだけから画質設定を組み立てる
// どのフラグも変更されていない場合はnilを返し、リクエストから省略される
func imageInput(cmd *cobra.Command, brightness, contrast, saturation int) *api.ImageQualityInput {
	input := &api.ImageQualityInput{}
	changed := false

	if cmd.Flags().Changed("brightness") {
		input.Brightness = &brightness
		changed = true
	}
	if cmd.Flags().Changed("contrast") {
		input.Contrast = &contrast
		changed = true
	}
	if cmd.Flags().Changed("saturation") {
		input.Saturation = &saturation
		changed = true
	}

	if !changed {
		return nil
	}
	return input
}

// printCameraDetails はカメラの詳細とフィードの一覧を表示する
func printCameraDetails(cam *api.CameraDetails) {
	fmt.Printf("ID:           %s\n", cam.CameraID)
	fmt.Printf("Name:         %s\n", cam.CameraName)
	fmt.Printf("Model:        %s\n", cam.CameraModel)
	fmt.Printf("IP:           %s\n", cam.NetworkSetup.IPAddress)
	fmt.Printf("Image:        brightness=%d contrast=%d saturation=%d\n",
		cam.ImageSettings.Brightness,
		cam.ImageSettings.Contrast,
		cam.ImageSettings.Saturation,
	)
	fmt.Printf("Added:        %s\n", cam.AddedOn.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:      %s\n", cam.LastUpdatedOn.Format("2006-01-02 15:04:05"))
	fmt.Printf("Last checkin: %s\n", formatCheckin(cam.LastKnownCheckin))

	if len(cam.AvailableFeeds) == 0 {
		return
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FEED ID\tPROTOCOL\tPORT\tPATH")
	fmt.Fprintln(w, "-------\t--------\t----\t----")
	for _, f := range cam.AvailableFeeds {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.FeedID, f.FeedProtocol, f.FeedPort, f.FeedPath)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(camerasCmd)

	camerasCmd.AddCommand(camerasListCmd)
	camerasCmd.AddCommand(camerasGetCmd)
	camerasCmd.AddCommand(camerasAddCmd)
	camerasCmd.AddCommand(camerasUpdateCmd)
	camerasCmd.AddCommand(camerasRemoveCmd)
	camerasCmd.AddCommand(camerasHeartbeatCmd)
	camerasCmd.AddCommand(camerasStatusCmd)

	// 一覧の絞り込み
	camerasListCmd.Flags().StringVar(&camModel, "model", "", "機種名の部分一致で絞り込む")
	camerasListCmd.Flags().StringVar(&camIPFrom, "ip-from", "", "IPアドレス範囲の下限")
	camerasListCmd.Flags().StringVar(&camIPTo, "ip-to", "", "IPアドレス範囲の上限")
	camerasListCmd.Flags().StringVar(&camOnline, "online", "", "オンライン状態で絞り込む (true/false)")
	camerasListCmd.Flags().IntVar(&camPage, "page", 0, "ページ番号 (デフォルト: 1)")
	camerasListCmd.Flags().IntVar(&camPageSize, "page-size", 0, "1ページあたりの件数 (デフォルト: 20)")

	// 登録
	camerasAddCmd.Flags().StringVar(&addCamName, "name", "", "カメラの名前")
	camerasAddCmd.Flags().StringVar(&addCamModel, "model", "", "カメラの機種名")
	camerasAddCmd.Flags().StringVar(&addCamIP, "ip", "", "カメラのIPアドレス")
	camerasAddCmd.Flags().IntVar(&addCamBrightness, "brightness", 50, "明るさ (0-100)")
	camerasAddCmd.Flags().IntVar(&addCamContrast, "contrast", 50, "コントラスト (0-100)")
	camerasAddCmd.Flags().IntVar(&addCamSaturation, "saturation", 50, "彩度 (0-100)")
	_ = camerasAddCmd.MarkFlagRequired("name")
	_ = camerasAddCmd.MarkFlagRequired("model")
	_ = camerasAddCmd.MarkFlagRequired("ip")

	// 更新
	camerasUpdateCmd.Flags().StringVar(&updCamName, "name", "", "カメラの名前")
	camerasUpdateCmd.Flags().StringVar(&updCamModel, "model", "", "カメラの機種名")
	camerasUpdateCmd.Flags().StringVar(&updCamIP, "ip", "", "カメラのIPアドレス")
	camerasUpdateCmd.Flags().IntVar(&updCamBrightness, "brightness", 50, "明るさ (0-100)")
	camerasUpdateCmd.Flags().IntVar(&updCamContrast, "contrast", 50, "コントラスト (0-100)")
	camerasUpdateCmd.Flags().IntVar(&updCamSaturation, "saturation", 50, "彩度 (0-100)")
}
