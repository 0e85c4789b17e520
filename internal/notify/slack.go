package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"MatchAnnounce/internal/config"
	"MatchAnnounce/internal/interfaces"
	"MatchAnnounce/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SlackMessage Slack incoming webhook 消息体
type SlackMessage struct {
	Channel   string `json:"channel,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
	Text      string `json:"text"`
}

// SlackNotifier 将同一条消息分别投递到所有配置的 webhook
type SlackNotifier struct {
	cfg        *config.NotifyConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewSlackNotifier 创建通知器；webhook 为空的目标在发送时跳过
func NewSlackNotifier(cfg *config.NotifyConfig, logger *logrus.Logger) interfaces.Notifier {
	enabled := 0
	for _, d := range cfg.Destinations {
		if d.WebhookURL != "" {
			enabled++
		}
	}
	if enabled == 0 {
		logger.Warn("未配置任何通知 webhook，消息将只写日志")
	} else {
		logger.WithField("destinations", enabled).Info("通知器初始化完成")
	}
	return &SlackNotifier{
		cfg: cfg,
		httpClient: httpclient.NewHTTPClient(httpclient.Options{
			Timeout: cfg.Timeout,
			Proxy:   cfg.Proxy,
		}, logger),
		logger: logger,
	}
}

// Send 并行投递到各目标；某个目标失败不影响其他目标，全部失败信息合并后返回
// 没有配置 webhook 时返回 interfaces.ErrNoDestinations
func (n *SlackNotifier) Send(ctx context.Context, text string) error {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		errs    []error
		targets int
	)
	for i, dest := range n.cfg.Destinations {
		if dest.WebhookURL == "" {
			continue
		}
		targets++
		g.Go(func() error {
			if err := n.post(ctx, dest, text); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("destination[%d]: %w", i, err))
				mu.Unlock()
				n.logger.WithError(err).WithField("destination", i).Warn("通知投递失败")
			}
			return nil // 错误已收集，不影响其他目标
		})
	}
	if targets == 0 {
		return interfaces.ErrNoDestinations
	}
	g.Wait()
	return errors.Join(errs...)
}

func (n *SlackNotifier) post(ctx context.Context, dest config.DestinationConfig, text string) error {
	payload, err := json.Marshal(SlackMessage{
		Channel:   dest.Channel,
		IconEmoji: n.cfg.IconEmoji,
		Text:      text,
	})
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dest.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
