package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"daicho/internal/camera"
	"daicho/internal/config"
	"daicho/internal/logging"
	"daicho/internal/server"
)

func main() {
	// コマンドラインオプション
	var (
		host    = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port    = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		version = flag.Bool("version", false, "バージョンを表示")
		help    = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// バージョン表示
	if *version {
		fmt.Println("daicho", server.Version)
		os.Exit(0)
	}

	// ヘルプ表示
	if *help {
		fmt.Println("Daicho カメラ台帳サービス")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  daicho [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// ロガーを作成
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("ロガーの作成に失敗しました: %v", err)
	}

	// 台帳とサーバーを組み立てる
	store := camera.NewMemoryStore()
	registry := camera.NewDefaultRegistry(store, cfg.Heartbeat.Timeout)

	srv, err := server.New(cfg, registry, logger)
	if err != nil {
		log.Fatalf("サーバーの作成に失敗しました: %v", err)
	}

	// サーバーを起動
	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
