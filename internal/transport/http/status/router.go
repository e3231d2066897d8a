package statushttp

import (
	"net/http"
	"strconv"
	"strings"

	"krill/internal/logger"
	"krill/internal/store"

	"github.com/gin-gonic/gin"
)

// Router 暴露扫描产出的查询接口。全部只读。
type Router struct {
	db     store.Store
	klines store.KlineStore
}

func NewRouter(db store.Store, klines store.KlineStore) *Router {
	return &Router{db: db, klines: klines}
}

// Register 将 /api 路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/signals", r.handleSignals)
	group.GET("/orders", r.handleOrders)
	group.GET("/alerts", r.handleAlerts)
	group.GET("/klines", r.handleKlines)
}

func parseLimit(c *gin.Context, def int) int {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if limit <= 0 {
		limit = def
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}

func (r *Router) handleSignals(c *gin.Context) {
	limit := parseLimit(c, 100)
	signals, err := r.db.ListRecentSignals(c.Request.Context(), limit)
	if err != nil {
		logger.Errorf("[api] signals list failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": signals, "count": len(signals)})
}

func (r *Router) handleOrders(c *gin.Context) {
	limit := parseLimit(c, 100)
	orders, err := r.db.ListRecentOrders(c.Request.Context(), limit)
	if err != nil {
		logger.Errorf("[api] orders list failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (r *Router) handleAlerts(c *gin.Context) {
	limit := parseLimit(c, 100)
	alerts, err := r.db.ListRecentAlerts(c.Request.Context(), limit)
	if err != nil {
		logger.Errorf("[api] alerts list failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

func (r *Router) handleKlines(c *gin.Context) {
	if r.klines == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "K线缓存未启用"})
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))
	interval := strings.TrimSpace(c.Query("interval"))
	if symbol == "" || interval == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol 与 interval 必填"})
		return
	}
	candles, err := r.klines.Get(c.Request.Context(), symbol, interval)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	limit := parseLimit(c, 200)
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":   symbol,
		"interval": interval,
		"klines":   candles,
		"count":    len(candles),
	})
}
