package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"daicho/internal/client"
)

// ビルド時に -ldflags "-X main.version=..." で上書きされる
var version = "dev"

var (
	serverURL  string
	jsonOutput bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:     "daichoctl",
	Short:   "カメラ台帳サーバーを操作するCLI",
	Long:    `ネットワークカメラ台帳サーバーのカメラとフィードを登録、照会、更新するためのコマンドラインツールです。`,
	Version: version,
}

// Execute はルートコマンドを実行する
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"接続先サーバーのURL (環境変数 DAICHO_SERVER でも指定可能)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"結果をJSONで出力する")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second,
		"1リクエストあたりの制限時間")

	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
}

func initConfig() {
	viper.SetDefault("server", "http://localhost:8080")
	viper.SetEnvPrefix("DAICHO")
	viper.AutomaticEnv()
}

// newClient は共通フラグの内容でクライアントを作成する
func newClient() *client.Client {
	return client.New(client.Config{
		BaseURL: viper.GetString("server"),
		Timeout: timeout,
	})
}

// printJSON は値を整形したJSONで標準出力に書く
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("JSONの出力に失敗しました: %v", err)
	}
}

// fail はエラーを表示して終了する
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "エラー: "+format+"\n", args...)
	os.Exit(1)
}

// formatCheckin はlast_known_checkinの表示を揃える
func formatCheckin(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}
