package controllers

import (
	"time"

	"github.com/HSouheill/marketplace_backend/services"
	"github.com/labstack/echo/v4"
)

// RevenueController serves the derived revenue views for the caller's own id and role.
type RevenueController struct {
	revenue *services.MonthlyRevenueService
	stats   *services.PlatformStatsService
}

func NewRevenueController(revenue *services.MonthlyRevenueService, stats *services.PlatformStatsService) *RevenueController {
	return &RevenueController{revenue: revenue, stats: stats}
}

func (rc *RevenueController) GetMonthly(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	limit, err := queryInt(c, "limit", 12)
	if err != nil {
		return badRequest(c, "limit must be a number")
	}

	userID, role := currentUser(c)
	return ok(c, rc.revenue.GetMonthlyRevenue(ctx, userID, role, limit))
}

func (rc *RevenueController) GetYearly(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	year, err := queryInt(c, "year", time.Now().Year())
	if err != nil || year < 1 {
		return badRequest(c, "year must be a number")
	}

	userID, role := currentUser(c)
	return ok(c, rc.revenue.GetYearlyRevenueSummary(ctx, userID, role, year))
}

func (rc *RevenueController) GetCurrent(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	userID, role := currentUser(c)
	return ok(c, rc.revenue.GetCurrentMonthRevenue(ctx, userID, role))
}

// GetPlatformStats never fails; a degraded result is flagged in the payload.
func (rc *RevenueController) GetPlatformStats(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	return ok(c, rc.stats.GetMonthlyPlatformStats(ctx))
}
