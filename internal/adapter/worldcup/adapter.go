package worldcup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"MatchAnnounce/internal/adapter"
	"MatchAnnounce/internal/config"
	"MatchAnnounce/internal/interfaces"
	"MatchAnnounce/internal/model"
	"MatchAnnounce/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Provider 配置中 feed.provider 的取值
const Provider = "worldcup"

func init() {
	adapter.Register(Provider, NewWorldCupAdapter)
}

// Adapter 世界杯比赛数据源（GET {base_url}/{matches_path}，返回 JSON 数组）
type Adapter struct {
	cfg        *config.FeedConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewWorldCupAdapter(cfg *config.FeedConfig, logger *logrus.Logger) interfaces.FeedFetcher {
	return &Adapter{
		cfg: cfg,
		httpClient: httpclient.NewHTTPClient(httpclient.Options{
			Timeout: cfg.Timeout,
			Proxy:   cfg.Proxy,
		}, logger),
		logger: logger,
	}
}

func (a *Adapter) GetName() string {
	return "WorldCup"
}

// FetchMatches 拉取当前比赛列表；无分页，不在周期之间保留状态
func (a *Adapter) FetchMatches(ctx context.Context) ([]*model.FeedMatch, error) {
	if a.cfg.BaseURL == "" {
		return nil, fmt.Errorf("数据源地址未配置")
	}
	matchesURL := fmt.Sprintf("%s/%s", strings.TrimRight(a.cfg.BaseURL, "/"), strings.TrimLeft(a.cfg.MatchesPath, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, matchesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取比赛列表失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭数据源响应体失败: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("数据源返回状态码 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var matches []*model.FeedMatch
	if err := json.NewDecoder(resp.Body).Decode(&matches); err != nil {
		return nil, fmt.Errorf("解析比赛列表失败: %w", err)
	}

	a.logger.WithField("url", matchesURL).Debugf("成功获取比赛共%d场", len(matches))
	return matches, nil
}
