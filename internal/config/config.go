package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server    ServerConfig
	Heartbeat HeartbeatConfig
	Defaults  FeedDefaults
	Log       LogConfig
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string // リッスンするホスト
	Port int    // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout     time.Duration // 読み込みタイムアウト
	WriteTimeout    time.Duration // 書き込みタイムアウト
	ShutdownTimeout time.Duration // グレースフルシャットダウンの待ち時間
}

// HeartbeatConfig は生存判定の設定
type HeartbeatConfig struct {
	// 最後のハートビートからこの時間を超えるとオフラインとみなす
	Timeout time.Duration
}

// FeedDefaults はフィード作成時の既定ポート番号
// CLIの簡易指定と /api/status の表示に使う
type FeedDefaults struct {
	RTSPHQPort int // 高画質RTSPの既定ポート
	RTSPLQPort int // 低画質RTSPの既定ポート
	HTTPPort   int // HTTP配信の既定ポート
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level      string // debug / info / warn / error
	File       string // ローテーション付きログファイル（空なら標準エラーのみ）
	MaxSizeMB  int    // ローテーションするファイルサイズ(MB)
	MaxBackups int    // 保持する世代数
}

// Load は設定を読み込む
// .env ファイルがあれば取り込み、環境変数とデフォルト値から組み立てる
func Load() (*Config, error) {
	// .env が無いのは通常の状態なのでエラーにしない
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsIntOrDefault("SERVER_PORT", 8080),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: time.Duration(getEnvAsIntOrDefault("SHUTDOWN_TIMEOUT", 10)) * time.Second,
		},
		Heartbeat: HeartbeatConfig{
			Timeout: time.Duration(getEnvAsIntOrDefault("HEARTBEAT_TIMEOUT", 60)) * time.Second,
		},
		Defaults: FeedDefaults{
			RTSPHQPort: getEnvAsIntOrDefault("DEFAULT_RTSP_HQ_PORT", 554),
			RTSPLQPort: getEnvAsIntOrDefault("DEFAULT_RTSP_LQ_PORT", 8554),
			HTTPPort:   getEnvAsIntOrDefault("DEFAULT_HTTP_PORT", 8080),
		},
		Log: LogConfig{
			Level:      getEnvOrDefault("LOG_LEVEL", "info"),
			File:       getEnvOrDefault("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsIntOrDefault("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getEnvAsIntOrDefault("LOG_MAX_BACKUPS", 3),
		},
	}

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("サーバーホストが設定されていません")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}
	if c.Heartbeat.Timeout <= 0 {
		return fmt.Errorf("無効なハートビートタイムアウト: %v", c.Heartbeat.Timeout)
	}
	for _, port := range []int{c.Defaults.RTSPHQPort, c.Defaults.RTSPLQPort, c.Defaults.HTTPPort} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("無効な既定ポート番号: %d", port)
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("無効なログレベル: %s", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("無効なログファイルサイズ: %d", c.Log.MaxSizeMB)
	}
	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
