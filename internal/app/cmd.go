package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCommand はpersoncacheのルートコマンドを返す。
// サブコマンドを省略した場合はserveとして動作する。
func NewRootCommand(w io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "personcache",
		Short:         "Random User APIの人物データをキャッシュして編集できるAPIサーバー",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), w)
		},
	}

	root.AddCommand(newServeCommand(w), newHealthcheckCommand())
	return root
}

func newServeCommand(w io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "APIサーバーを起動する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), w)
		},
	}
}

// newHealthcheckCommand はヘルスチェック用のサブコマンドを返す。
// 軽量に動かすため設定の読み込みやログの初期化は行わない。
func newHealthcheckCommand() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "ローカルで動作中のサーバーの /health を確認する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = os.Getenv("SERVER_PORT")
			}
			if port == "" {
				port = "8080"
			}
			return runHealthcheck(cmd.Context(), "http://localhost:"+port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "確認するポート（既定はSERVER_PORTまたは8080）")
	return cmd
}

// Run はアプリケーションのメインエントリーポイント。argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(w)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// runServe はAPIサーバーモードで起動する。ctxが終了するとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, w io.Writer) error {
	cfg, log, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	log.Info("starting application",
		slog.String("port", cfg.ServerPort),
		slog.String("source_url", cfg.SourceURL),
		slog.Int("source_results", cfg.SourceResults),
		slog.Bool("ssrf_guard", cfg.SSRFGuard),
		slog.Duration("refresh_interval", cfg.RefreshInterval),
	)

	ln, err := net.Listen("tcp", ":"+cfg.ServerPort)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", cfg.ServerPort, err)
	}
	return Serve(ctx, cfg, log, ln)
}
