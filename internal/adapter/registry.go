package adapter

import (
	"fmt"
	"sort"
	"sync"

	"MatchAnnounce/internal/config"
	"MatchAnnounce/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// Factory 数据源适配器工厂函数签名
type Factory func(cfg *config.FeedConfig, logger *logrus.Logger) interfaces.FeedFetcher

var (
	registryMu      sync.RWMutex
	factoryRegistry = make(map[string]Factory)
)

// Register 供适配器 init 函数调用，注册工厂函数
func Register(provider string, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("数据源%s的工厂函数不能为nil", provider))
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := factoryRegistry[provider]; exists {
		logrus.Warnf("数据源%s的适配器已注册，将覆盖原有实现", provider)
	}
	factoryRegistry[provider] = factory
}

// ListProviders 列出所有已注册的数据源（按名称排序）
func ListProviders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	providers := make([]string, 0, len(factoryRegistry))
	for p := range factoryRegistry {
		providers = append(providers, p)
	}
	sort.Strings(providers)
	return providers
}

// NewFeedFetcher 按 feed.provider 创建数据源适配器
func NewFeedFetcher(cfg *config.FeedConfig, logger *logrus.Logger) (interfaces.FeedFetcher, error) {
	registryMu.RLock()
	factory, ok := factoryRegistry[cfg.Provider]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("未支持的数据源: %q（已注册：%v）", cfg.Provider, ListProviders())
	}
	fetcher := factory(cfg, logger)
	logger.WithField("provider", cfg.Provider).Infof("数据源适配器%s初始化成功", fetcher.GetName())
	return fetcher, nil
}
