package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/floran-server/internal/battle"
	"github.com/wfunc/floran-server/internal/liveops"
)

// MetaHandler 静态数据处理器，对客户端暴露物种/道具/环境/活动表
type MetaHandler struct {
	liveops *liveops.Service
}

// NewMetaHandler 创建静态数据处理器
func NewMetaHandler(liveopsSvc *liveops.Service) *MetaHandler {
	return &MetaHandler{liveops: liveopsSvc}
}

// Florans 全部可选物种
func (h *MetaHandler) Florans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"florans": battle.AllSpecies(),
	})
}

// Items 全部对战道具
func (h *MetaHandler) Items(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"items": battle.AllItems(),
	})
}

// ArenaInfo 对战环境（天气）描述
type ArenaInfo struct {
	Weather     battle.WeatherType `json:"weather"`
	Probability float64            `json:"probability"`
}

// 每回合的天气抽样分布，与引擎一致
var arenaTable = []ArenaInfo{
	{Weather: battle.WeatherHotDry, Probability: 0.25},
	{Weather: battle.WeatherCoolDry, Probability: 0.20},
	{Weather: battle.WeatherLightRain, Probability: 0.20},
	{Weather: battle.WeatherHeavyRain, Probability: 0.15},
	{Weather: battle.WeatherCloudy, Probability: 0.10},
	{Weather: battle.WeatherWindy, Probability: 0.10},
}

// Arenas 对战环境表
func (h *MetaHandler) Arenas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"arenas": arenaTable,
	})
}

// Events 当前生效的运营活动
func (h *MetaHandler) Events(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"events": h.liveops.ActiveEvents(),
	})
}
