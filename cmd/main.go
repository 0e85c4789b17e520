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

	"MatchAnnounce/internal/api"
	"MatchAnnounce/internal/service"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "matchannounce",
		Short:         "比赛状态播报：轮询比赛数据源，比分/事件变化时推送通知",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认 ./config/config.yaml）")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "启动 HTTP 服务与定时播报任务",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "announce",
			Short: "执行一次播报周期后退出",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runAnnounce(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "为数据源中尚无快照的比赛建立初始快照",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSeed(cmd.Context(), configPath)
			},
		},
	)
	return root
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runAnnounce(parent context.Context, configPath string) error {
	ctx, stop := signalContext(parent)
	defer stop()

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.announce.RunCycle(ctx)
	if errors.Is(err, service.ErrCycleInProgress) {
		a.logger.Info("其他实例正在执行播报周期，本次跳过")
		return nil
	}
	if err != nil {
		return err
	}
	a.logger.Infof("播报完成：%d场比赛，%d条通知", report.Rows, report.Notifications)
	return nil
}

func runSeed(parent context.Context, configPath string) error {
	ctx, stop := signalContext(parent)
	defer stop()

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	_, err = a.seed.Run(ctx)
	return err
}

func runServe(parent context.Context, configPath string) error {
	ctx, stop := signalContext(parent)
	defer stop()

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	// 1. 配置Gin运行模式（debug/release）
	gin.SetMode(a.cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	pprof.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// 2. 注册API路由
	api.NewAnnounceHandler(a.announce, a.seed, a.matchRepo, a.logger).Register(r)

	// 3. 定时播报；退出前必须等调度器返回，进行中的周期要先释放任务锁再关闭数据库
	schedulerDone := make(chan struct{})
	if a.cfg.Announce.Enabled {
		scheduler := service.NewScheduler(a.announce, a.cfg.Announce.Interval, a.logger)
		go func() {
			defer close(schedulerDone)
			scheduler.Run(ctx)
		}()
	} else {
		close(schedulerDone)
		a.logger.Info("announce.enabled=false，未启动定时播报")
	}

	// 4. 启动服务
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("服务启动成功，端口：%d", a.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		serveErr = fmt.Errorf("启动服务失败: %w", err)
	case <-ctx.Done():
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.logger.Info("正在关闭服务…")
	if serveErr == nil {
		serveErr = srv.Shutdown(shutdownCtx)
	}
	<-schedulerDone
	return serveErr
}
