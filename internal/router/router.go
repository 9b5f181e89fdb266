package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/realty-ledger/internal/cache"
	"github.com/realty-ledger/internal/config"
	adminhandlers "github.com/realty-ledger/internal/http/handlers/admin"
	realtorhandlers "github.com/realty-ledger/internal/http/handlers/realtor"
	"github.com/realty-ledger/internal/http/response"
	"github.com/realty-ledger/internal/logger"
	"github.com/realty-ledger/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按经纪人端/后台分组）
	realtorHandler := realtorhandlers.New(c)
	adminHandler := adminhandlers.New(c)

	payoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:payout_request", cache.Prefix()),
		WindowSeconds: cfg.Ledger.PayoutRateLimitWindow,
		MaxRequests:   cfg.Ledger.PayoutRateLimitMax,
	}
	var payoutLimiter gin.HandlerFunc
	if redisClient := cache.Client(); redisClient != nil {
		payoutLimiter = RateLimitMiddleware(redisClient, payoutRule, KeyByPathParam("id"))
	} else {
		payoutLimiter = LocalRateLimitMiddleware(payoutRule, KeyByPathParam("id"))
	}

	// 中间件
	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 经纪人接口
		realtor := apiV1.Group("/realtors/:id")
		{
			realtor.GET("/balance", realtorHandler.GetBalance)
			realtor.GET("/transactions", realtorHandler.GetTransactions)
			realtor.POST("/payouts", payoutLimiter, realtorHandler.RequestPayout)
			realtor.GET("/payouts", realtorHandler.ListPayouts)
			realtor.GET("/notifications", realtorHandler.ListNotifications)
			realtor.GET("/notifications/unread-count", realtorHandler.GetUnreadCount)
			realtor.PUT("/notifications/:notification_id/read", realtorHandler.MarkNotificationRead)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 提现审核
			admin.GET("/payouts", adminHandler.ListPayouts)
			admin.PUT("/payouts/:request_no/status", adminHandler.UpdatePayoutStatus)

			// 佣金
			admin.PUT("/commissions/:id/status", adminHandler.UpdateCommissionStatus)

			// 报表
			admin.GET("/reports/monthly", adminHandler.GetMonthlyTotals)
			admin.GET("/reports/top-realtors", adminHandler.GetTopRealtors)
			admin.GET("/reports/recent-receipts", adminHandler.GetRecentReceipts)
			admin.GET("/reports/metrics", adminHandler.GetMetrics)

			// 路由目录
			admin.GET("/routes", func(ctx *gin.Context) {
				response.Success(ctx, buildRouteCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type routeCatalogItem struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

func buildRouteCatalog(engine *gin.Engine) []routeCatalogItem {
	if engine == nil {
		return []routeCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]routeCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/") {
			continue
		}
		signature := method + ":" + item.Path
		if _, exists := seen[signature]; exists {
			continue
		}
		seen[signature] = struct{}{}
		items = append(items, routeCatalogItem{
			Module: deriveRouteModule(item.Path),
			Method: method,
			Path:   item.Path,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Path == items[j].Path {
				return items[i].Method < items[j].Method
			}
			return items[i].Path < items[j].Path
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveRouteModule(path string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(path), "/api/v1/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if segments[0] != "admin" || len(segments) == 1 {
		return segments[0]
	}
	if segments[1] == "reports" {
		return "reports"
	}
	return segments[1]
}
