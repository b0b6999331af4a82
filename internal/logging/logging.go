// Package logging は構造化ログの初期化を提供する
//
// # 責務
//
// - 設定からslogロガーを組み立てる
// - コンソールには色付きの読みやすい形式で出力する
// - ログファイルが指定された場合はJSON形式でローテーション付き出力する
//
// # 仕様
//
// - コンソール出力は標準エラーに書き込む
// - ファイル出力はlumberjackによりサイズベースでローテーションされる
// - 両方が有効な場合は同じレコードを両方に配送する
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/natefinch/lumberjack"

	"daicho/internal/config"
)

// New は設定からロガーを構築する
// ログファイルが未指定の場合はコンソール出力のみとなる
func New(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	handlers := []slog.Handler{newConsoleHandler(os.Stderr, level)}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		handlers = append(handlers, slog.NewJSONHandler(rotator, &slog.HandlerOptions{
			Level: level,
		}))
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0]), nil
	}
	return slog.New(newMultiHandler(handlers...)), nil
}

// parseLevel はログレベル文字列をslogのレベルに変換する
func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("不明なログレベル: %s", s)
	}
}

// レベル表示はTTYでない場合、colorパッケージが自動で装飾を外す
var (
	debugLabel = color.New(color.FgCyan)
	infoLabel  = color.New(color.FgGreen)
	warnLabel  = color.New(color.FgYellow)
	errorLabel = color.New(color.FgRed)
)

func levelLabel(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return debugLabel.Sprint("DEBUG")
	case level < slog.LevelWarn:
		return infoLabel.Sprint("INFO")
	case level < slog.LevelError:
		return warnLabel.Sprint("WARN")
	default:
		return errorLabel.Sprint("ERROR")
	}
}

// consoleHandler は人間が読むための1行形式のハンドラ
// WithAttrsで付けられた属性は、その時点のグループ名で整形済みの
// 文字列として保持する
type consoleHandler struct {
	mu           *sync.Mutex
	out          io.Writer
	level        slog.Level
	preformatted string
	groups       []string
}

func newConsoleHandler(out io.Writer, level slog.Level) *consoleHandler {
	return &consoleHandler{
		mu:    &sync.Mutex{},
		out:   out,
		level: level,
	}
}

// Enabled は指定レベルのレコードを処理するかを返す
func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle はレコードを「時刻 レベル メッセージ key=value ...」形式で書き出す
func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.Format("2006-01-02 15:04:05"))
	b.WriteByte(' ')
	b.WriteString(levelLabel(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	b.WriteString(h.preformatted)
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&b, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *consoleHandler) appendAttr(b *strings.Builder, a slog.Attr) {
	key := a.Key
	if len(h.groups) > 0 {
		key = strings.Join(h.groups, ".") + "." + key
	}
	fmt.Fprintf(b, " %s=%v", key, a.Value)
}

// WithAttrs は属性を追加した新しいハンドラを返す
// 排他制御用のmutexは共有する
func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	var b strings.Builder
	for _, a := range attrs {
		h.appendAttr(&b, a)
	}
	h2.preformatted = h.preformatted + b.String()
	return &h2
}

// WithGroup はグループ名を追加した新しいハンドラを返す
// グループはキーの接頭辞として平坦化される
func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string{}, h.groups...), name)
	return &h2
}

// multiHandler は複数のハンドラに同じレコードを配送する
type multiHandler struct {
	handlers []slog.Handler
}

func newMultiHandler(handlers ...slog.Handler) *multiHandler {
	return &multiHandler{handlers: handlers}
}

// Enabled はいずれかのハンドラが有効ならtrueを返す
func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle は有効な全ハンドラにレコードを配送する
// 一部のハンドラが失敗しても残りには配送する
func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs は全ハンドラに属性を伝播する
func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

// WithGroup は全ハンドラにグループを伝播する
func (h *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
