package controller

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/mapper"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

type AdminController struct {
	catalog *service.CatalogService
	users   *service.UserService
	finance *service.FinanceService
	logger  logrus.FieldLogger
}

func NewAdminController(catalog *service.CatalogService, users *service.UserService, finance *service.FinanceService) *AdminController {
	return &AdminController{
		catalog: catalog,
		users:   users,
		finance: finance,
		logger:  factory.NewModuleLogger("admin-controller"),
	}
}

// Users

func (c *AdminController) ListUsers(ctx echo.Context) error {
	items, err := c.users.ListUsers(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, c.logger, err, "List users")
	}
	return ctx.JSON(http.StatusOK, &types.ListUsersResponse{Users: mapper.UsersToResponse(items)})
}

func (c *AdminController) CreateUser(ctx echo.Context) error {
	req, err := types.NewUserRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	user, err := c.users.CreateUser(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Create user")
	}
	return ctx.JSON(http.StatusCreated, &types.UserEnvelopeResponse{User: mapper.UserToResponse(user)})
}

func (c *AdminController) UpdateUser(ctx echo.Context) error {
	req, err := types.NewUserRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	user, err := c.users.UpdateUser(ctx.Request().Context(), ctx.Param("id"), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Update user")
	}
	return ctx.JSON(http.StatusOK, &types.UserEnvelopeResponse{User: mapper.UserToResponse(user)})
}

func (c *AdminController) DeleteUser(ctx echo.Context) error {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return writeError(ctx, http.StatusUnauthorized, "unauthorized")
	}
	if err := c.users.DeleteUser(ctx.Request().Context(), claims.UserID, ctx.Param("id")); err != nil {
		return respondError(ctx, c.logger, err, "Delete user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Streamers

func (c *AdminController) ListStreamers(ctx echo.Context) error {
	items, err := c.catalog.ListStreamers(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, c.logger, err, "List streamers")
	}
	return ctx.JSON(http.StatusOK, &types.ItemsResponse[*types.Streamer]{Items: mapper.StreamersToResponse(items)})
}

func (c *AdminController) CreateStreamer(ctx echo.Context) error {
	req, err := types.NewStreamerRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.CreateStreamer(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Create streamer")
	}
	return ctx.JSON(http.StatusCreated, mapper.StreamerToResponse(item))
}

func (c *AdminController) UpdateStreamer(ctx echo.Context) error {
	req, err := types.NewStreamerRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.UpdateStreamer(ctx.Request().Context(), ctx.Param("id"), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Update streamer")
	}
	return ctx.JSON(http.StatusOK, mapper.StreamerToResponse(item))
}

func (c *AdminController) DeleteStreamer(ctx echo.Context) error {
	if err := c.catalog.DeleteStreamer(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return respondError(ctx, c.logger, err, "Delete streamer")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Streamer coupons

func (c *AdminController) ListStreamerCoupons(ctx echo.Context) error {
	items, err := c.catalog.ListStreamerCoupons(ctx.Request().Context(), ctx.Param("streamerId"))
	if err != nil {
		return respondError(ctx, c.logger, err, "List streamer coupons")
	}
	return ctx.JSON(http.StatusOK, &types.ItemsResponse[*types.StreamerCoupon]{Items: mapper.StreamerCouponsToResponse(items)})
}

func (c *AdminController) CreateStreamerCoupon(ctx echo.Context) error {
	req, err := types.NewStreamerCouponRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.CreateStreamerCoupon(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Create streamer coupon")
	}
	return ctx.JSON(http.StatusCreated, mapper.StreamerCouponToResponse(item))
}

func (c *AdminController) UpdateStreamerCoupon(ctx echo.Context) error {
	req, err := types.NewStreamerCouponRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.UpdateStreamerCoupon(ctx.Request().Context(), ctx.Param("id"), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Update streamer coupon")
	}
	return ctx.JSON(http.StatusOK, mapper.StreamerCouponToResponse(item))
}

func (c *AdminController) DeleteStreamerCoupon(ctx echo.Context) error {
	if err := c.catalog.DeleteStreamerCoupon(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return respondError(ctx, c.logger, err, "Delete streamer coupon")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Campaigns

func (c *AdminController) ListCampaigns(ctx echo.Context) error {
	items, err := c.catalog.ListCampaigns(ctx.Request().Context(), ctx.QueryParam("streamer_id"))
	if err != nil {
		return respondError(ctx, c.logger, err, "List campaigns")
	}
	return ctx.JSON(http.StatusOK, &types.ItemsResponse[*types.Campaign]{Items: mapper.CampaignsToResponse(items)})
}

func (c *AdminController) CreateCampaign(ctx echo.Context) error {
	req, err := types.NewCampaignRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.CreateCampaign(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Create campaign")
	}
	return ctx.JSON(http.StatusCreated, mapper.CampaignToResponse(item))
}

func (c *AdminController) UpdateCampaign(ctx echo.Context) error {
	req, err := types.NewCampaignRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.UpdateCampaign(ctx.Request().Context(), ctx.Param("id"), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Update campaign")
	}
	return ctx.JSON(http.StatusOK, mapper.CampaignToResponse(item))
}

func (c *AdminController) DeleteCampaign(ctx echo.Context) error {
	if err := c.catalog.DeleteCampaign(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return respondError(ctx, c.logger, err, "Delete campaign")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Global discount coupons

func (c *AdminController) ListDiscountCoupons(ctx echo.Context) error {
	items, err := c.catalog.ListDiscountCoupons(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, c.logger, err, "List discount coupons")
	}
	return ctx.JSON(http.StatusOK, &types.ItemsResponse[*types.DiscountCoupon]{Items: mapper.DiscountCouponsToResponse(items)})
}

func (c *AdminController) CreateDiscountCoupon(ctx echo.Context) error {
	req, err := types.NewDiscountCouponRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.CreateDiscountCoupon(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Create discount coupon")
	}
	return ctx.JSON(http.StatusCreated, mapper.DiscountCouponToResponse(item))
}

func (c *AdminController) UpdateDiscountCoupon(ctx echo.Context) error {
	req, err := types.NewDiscountCouponRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.UpdateDiscountCoupon(ctx.Request().Context(), ctx.Param("id"), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Update discount coupon")
	}
	return ctx.JSON(http.StatusOK, mapper.DiscountCouponToResponse(item))
}

func (c *AdminController) DeleteDiscountCoupon(ctx echo.Context) error {
	if err := c.catalog.DeleteDiscountCoupon(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return respondError(ctx, c.logger, err, "Delete discount coupon")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Servers and mods

func (c *AdminController) ListServers(ctx echo.Context) error {
	items, err := c.catalog.ListServers(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, c.logger, err, "List servers")
	}
	return ctx.JSON(http.StatusOK, &types.ItemsResponse[*types.Server]{Items: mapper.ServersToResponse(items)})
}

func (c *AdminController) CreateServer(ctx echo.Context) error {
	req, err := types.NewServerRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.CreateServer(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Create server")
	}
	return ctx.JSON(http.StatusCreated, mapper.ServerToResponse(item))
}

func (c *AdminController) UpdateServer(ctx echo.Context) error {
	req, err := types.NewServerRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.UpdateServer(ctx.Request().Context(), ctx.Param("id"), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Update server")
	}
	return ctx.JSON(http.StatusOK, mapper.ServerToResponse(item))
}

func (c *AdminController) DeleteServer(ctx echo.Context) error {
	if err := c.catalog.DeleteServer(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return respondError(ctx, c.logger, err, "Delete server")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *AdminController) ListServerMods(ctx echo.Context) error {
	items, err := c.catalog.ListServerMods(ctx.Request().Context(), ctx.Param("serverId"))
	if err != nil {
		return respondError(ctx, c.logger, err, "List server mods")
	}
	return ctx.JSON(http.StatusOK, &types.ItemsResponse[*types.ServerMod]{Items: mapper.ServerModsToResponse(items)})
}

func (c *AdminController) CreateServerMod(ctx echo.Context) error {
	req, err := types.NewServerModRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.CreateServerMod(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Create server mod")
	}
	return ctx.JSON(http.StatusCreated, mapper.ServerModToResponse(item))
}

func (c *AdminController) UpdateServerMod(ctx echo.Context) error {
	req, err := types.NewServerModRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.UpdateServerMod(ctx.Request().Context(), ctx.Param("id"), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Update server mod")
	}
	return ctx.JSON(http.StatusOK, mapper.ServerModToResponse(item))
}

func (c *AdminController) DeleteServerMod(ctx echo.Context) error {
	if err := c.catalog.DeleteServerMod(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return respondError(ctx, c.logger, err, "Delete server mod")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// VIP packages

// ListVipPackages is also mounted without auth for the donation page.
func (c *AdminController) ListVipPackages(ctx echo.Context) error {
	items, err := c.catalog.ListVipPackages(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, c.logger, err, "List vip packages")
	}
	return ctx.JSON(http.StatusOK, &types.ItemsResponse[*types.VipPackage]{Items: mapper.VipPackagesToResponse(items)})
}

func (c *AdminController) CreateVipPackage(ctx echo.Context) error {
	req, err := types.NewVipPackageRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.CreateVipPackage(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Create vip package")
	}
	return ctx.JSON(http.StatusCreated, mapper.VipPackageToResponse(item))
}

func (c *AdminController) UpdateVipPackage(ctx echo.Context) error {
	req, err := types.NewVipPackageRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.UpdateVipPackage(ctx.Request().Context(), ctx.Param("id"), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Update vip package")
	}
	return ctx.JSON(http.StatusOK, mapper.VipPackageToResponse(item))
}

func (c *AdminController) DeleteVipPackage(ctx echo.Context) error {
	if err := c.catalog.DeleteVipPackage(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return respondError(ctx, c.logger, err, "Delete vip package")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Secrets

func (c *AdminController) ListSecrets(ctx echo.Context) error {
	reveal, _ := strconv.ParseBool(ctx.QueryParam("reveal"))
	items, err := c.catalog.ListSecrets(ctx.Request().Context(), reveal)
	if err != nil {
		return respondError(ctx, c.logger, err, "List secrets")
	}
	return ctx.JSON(http.StatusOK, &types.ItemsResponse[*types.Secret]{Items: mapper.SecretsToResponse(items)})
}

func (c *AdminController) UpsertSecret(ctx echo.Context) error {
	req, err := types.NewSecretRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.catalog.UpsertSecret(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Upsert secret")
	}
	factory.LoggerWithContext(c.logger, ctx).WithField("key", item.Key).Info("secret updated")
	return ctx.JSON(http.StatusOK, mapper.SecretToResponse(item))
}

func (c *AdminController) DeleteSecret(ctx echo.Context) error {
	if err := c.catalog.DeleteSecret(ctx.Request().Context(), ctx.Param("key")); err != nil {
		return respondError(ctx, c.logger, err, "Delete secret")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Finance

func (c *AdminController) MonthlySummary(ctx echo.Context) error {
	req, err := types.NewMonthlySummaryRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	summary, err := c.finance.MonthlySummary(ctx.Request().Context(), req.Month, req.Year)
	if err != nil {
		return respondError(ctx, c.logger, err, "Monthly summary")
	}
	return ctx.JSON(http.StatusOK, mapper.MonthlySummaryToResponse(summary))
}
