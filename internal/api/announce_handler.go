package api

import (
	"errors"
	"net/http"
	"strconv"

	"MatchAnnounce/internal/repository"
	"MatchAnnounce/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AnnounceHandler 手动触发播报周期、初始化快照、查询快照
type AnnounceHandler struct {
	announceService *service.AnnounceService
	seedService     *service.SeedService
	matchRepo       repository.MatchRepository
	logger          *logrus.Logger
}

func NewAnnounceHandler(announceService *service.AnnounceService, seedService *service.SeedService, matchRepo repository.MatchRepository, logger *logrus.Logger) *AnnounceHandler {
	return &AnnounceHandler{
		announceService: announceService,
		seedService:     seedService,
		matchRepo:       matchRepo,
		logger:          logger,
	}
}

// Register 注册路由
func (h *AnnounceHandler) Register(r gin.IRouter) {
	r.POST("/sync/announce", h.TriggerCycle)
	r.POST("/sync/matches/seed", h.SeedMatches)
	r.GET("/api/matches", h.ListMatches)
	r.GET("/api/matches/:fifa_id", h.GetMatch)
}

// TriggerCycle 立即执行一次播报周期（与定时任务共用同一把锁）
// POST /sync/announce
func (h *AnnounceHandler) TriggerCycle(c *gin.Context) {
	report, err := h.announceService.RunCycle(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrCycleInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("手动播报周期失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

// SeedMatches 为数据源中尚无快照的比赛建立快照
// POST /sync/matches/seed
func (h *AnnounceHandler) SeedMatches(c *gin.Context) {
	inserted, err := h.seedService.Run(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("初始化快照失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

// ListMatches 快照列表
// GET /api/matches?status=in progress&page=1&page_size=20
func (h *AnnounceHandler) ListMatches(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	filter := repository.MatchFilter{Status: c.Query("status")}

	list, total, err := h.matchRepo.ListMatches(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListMatches failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "list": list})
}

// GetMatch 单场快照
// GET /api/matches/:fifa_id
func (h *AnnounceHandler) GetMatch(c *gin.Context) {
	m, err := h.matchRepo.GetByFifaID(c.Request.Context(), c.Param("fifa_id"))
	if err != nil {
		if errors.Is(err, repository.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("GetMatch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}
