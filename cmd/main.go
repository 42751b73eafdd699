package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Cokefish9527/clipper/api"
	"github.com/Cokefish9527/clipper/queue"
	"github.com/Cokefish9527/clipper/service"
	"github.com/Cokefish9527/clipper/utils"

	// 导入swagger文档
	_ "github.com/Cokefish9527/clipper/docs"
)

// @title clipper API
// @version 1.0
// @description 下载视频并生成随机短片段，可选上传到 Dropbox / OSS / S3
// @host localhost:8000
// @BasePath /

// @tag.name clip
// @tag.description 切片接口

// @tag.name monitor
// @tag.description 系统监控接口

var (
	configPath string
	listenAddr string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "clipper",
		Short:         "下载视频并生成随机短片段",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env 不存在时忽略
			_ = godotenv.Load()
			if configPath == "" {
				configPath = os.Getenv("CLIPPER_CONFIG")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径，默认读取 CLIPPER_CONFIG 或 config/config.json")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "启动HTTP服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "监听地址，覆盖配置文件")
	root.Flags().AddFlagSet(serveCmd.Flags())

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "检查 ffmpeg / ffprobe / yt-dlp 是否可用",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := service.LoadConfig(configPath)
			if err != nil {
				return err
			}
			failed := 0
			for _, status := range service.ValidateTools(cmd.Context(), config) {
				if status.OK() {
					fmt.Fprintf(cmd.OutOrStdout(), "[OK]   %-8s %s (%s)\n", status.Name, status.Version, status.Path)
					continue
				}
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "[FAIL] %-8s %s\n", status.Name, status.Error)
			}
			if failed > 0 {
				return fmt.Errorf("%d 个外部命令不可用", failed)
			}
			return nil
		},
	}

	root.AddCommand(serveCmd, checkCmd)
	return root
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	config, err := service.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		config.Addr = listenAddr
	}

	if err := utils.InitGlobalLogger(config.Log); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer utils.GetGlobalLogger().Close()

	for _, status := range service.ValidateTools(ctx, config) {
		if !status.OK() {
			utils.Warn("外部命令不可用", map[string]string{"tool": status.Name, "error": status.Error})
		}
	}

	if err := os.MkdirAll(config.DownloadDir, 0755); err != nil {
		return fmt.Errorf("创建下载目录失败: %w", err)
	}

	uploader, err := service.NewUploader(config.Storage)
	if err != nil {
		return err
	}
	jobTimeout, err := config.JobTimeoutDuration()
	if err != nil {
		return err
	}

	pipeline := service.NewClipPipeline(config, service.WithUploader(uploader))
	store := queue.NewInMemoryJobStore(config.JobHistory)
	workerPool := service.NewWorkerPool(pipeline, store, config.Workers, config.QueueSize, jobTimeout)
	workerPool.Start()
	defer workerPool.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.RouterConfig{
		Runner:      workerPool,
		Store:       store,
		Pool:        workerPool,
		DownloadDir: config.DownloadDir,
		BaseURL:     config.BaseURL,
		Swagger:     true,
	})

	server := &http.Server{
		Addr:    config.Addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		utils.Info("服务启动", map[string]string{
			"addr":        config.Addr,
			"downloadDir": config.DownloadDir,
			"storage":     config.Storage.Provider,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("HTTP服务异常退出: %w", err)
		}
		return nil
	case sig := <-quit:
		utils.Info("收到退出信号，正在关闭服务", map[string]string{"signal": sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.Error("关闭HTTP服务失败", map[string]string{"error": err.Error()})
		return err
	}
	utils.Info("服务已关闭", nil)
	return nil
}
