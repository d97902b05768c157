package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
)

type streamerRequest interface {
	GetName() string
	GetEmail() string
	GetPhone() string
	GetSteamId() string
	GetYoutube() string
	GetInstagram() string
	GetFacebook() string
}

type streamerCouponRequest interface {
	GetStreamerId() string
	GetName() string
	GetCode() string
	GetDescription() string
	GetStartsAt() time.Time
	GetEndsAt() time.Time
	GetValue() *decimal.Decimal
	GetPercentage() *decimal.Decimal
}

type campaignRequest interface {
	GetStreamerId() string
	GetName() string
	GetDescription() string
	GetStartsAt() time.Time
	GetEndsAt() time.Time
	GetValue() decimal.Decimal
}

type discountCouponRequest interface {
	GetCode() string
	GetPercentage() decimal.Decimal
	GetActive() bool
}

type serverRequest interface {
	GetName() string
	GetHost() string
	GetMonthlyCost() decimal.Decimal
}

type serverModRequest interface {
	GetServerId() string
	GetName() string
	GetDiscord() string
	GetSteamStore() string
	GetMonthlyCost() decimal.Decimal
}

type vipPackageRequest interface {
	GetName() string
	GetDescription() string
	GetValue() decimal.Decimal
}

type secretRequest interface {
	GetKey() string
	GetValue() string
	GetDescription() *string
}

type streamerRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Streamer, error)
	List(ctx context.Context) ([]*entity.Streamer, error)
	Create(ctx context.Context, streamer *entity.Streamer) error
	Update(ctx context.Context, streamer *entity.Streamer) error
	Delete(ctx context.Context, id string) error
}

type streamerCouponRepository interface {
	FindByID(ctx context.Context, id string) (*entity.StreamerCoupon, error)
	ListByStreamer(ctx context.Context, streamerID string) ([]*entity.StreamerCoupon, error)
	Create(ctx context.Context, coupon *entity.StreamerCoupon) error
	Update(ctx context.Context, coupon *entity.StreamerCoupon) error
	Delete(ctx context.Context, id string) error
}

type campaignRepository interface {
	List(ctx context.Context, filter repository.CampaignFilter) ([]*entity.StreamerCampaign, error)
	FindByID(ctx context.Context, id string) (*entity.StreamerCampaign, error)
	Create(ctx context.Context, campaign *entity.StreamerCampaign) error
	Update(ctx context.Context, campaign *entity.StreamerCampaign) error
	Delete(ctx context.Context, id string) error
}

type discountCouponRepository interface {
	List(ctx context.Context) ([]*entity.DiscountCoupon, error)
	Create(ctx context.Context, coupon *entity.DiscountCoupon) error
	Update(ctx context.Context, coupon *entity.DiscountCoupon) error
	Delete(ctx context.Context, id string) error
}

type serverRepository interface {
	List(ctx context.Context) ([]*entity.Server, error)
	FindByID(ctx context.Context, id string) (*entity.Server, error)
	Create(ctx context.Context, server *entity.Server) error
	Update(ctx context.Context, server *entity.Server) error
	Delete(ctx context.Context, id string) error
	ListMods(ctx context.Context, serverID string) ([]*entity.ServerMod, error)
	CreateMod(ctx context.Context, mod *entity.ServerMod) error
	UpdateMod(ctx context.Context, mod *entity.ServerMod) error
	DeleteMod(ctx context.Context, id string) error
}

type vipPackageRepository interface {
	List(ctx context.Context) ([]*entity.VipPackage, error)
	Create(ctx context.Context, pkg *entity.VipPackage) error
	Update(ctx context.Context, pkg *entity.VipPackage) error
	Delete(ctx context.Context, id string) error
}

type secretRepository interface {
	List(ctx context.Context) ([]*entity.AppSecret, error)
	Upsert(ctx context.Context, secret *entity.AppSecret) error
	Delete(ctx context.Context, key string) error
}

// CatalogService backs the admin screens for everything that is not a
// donation or a user.
type CatalogService struct {
	streamers       streamerRepository
	streamerCoupons streamerCouponRepository
	campaigns       campaignRepository
	discountCoupons discountCouponRepository
	servers         serverRepository
	vipPackages     vipPackageRepository
	secrets         secretRepository
	now             func() time.Time
}

func NewCatalogService(
	streamers streamerRepository,
	streamerCoupons streamerCouponRepository,
	campaigns campaignRepository,
	discountCoupons discountCouponRepository,
	servers serverRepository,
	vipPackages vipPackageRepository,
	secrets secretRepository,
) *CatalogService {
	return &CatalogService{
		streamers:       streamers,
		streamerCoupons: streamerCoupons,
		campaigns:       campaigns,
		discountCoupons: discountCoupons,
		servers:         servers,
		vipPackages:     vipPackages,
		secrets:         secrets,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Streamers

func (s *CatalogService) ListStreamers(ctx context.Context) ([]*entity.Streamer, error) {
	return s.streamers.List(ctx)
}

func (s *CatalogService) CreateStreamer(ctx context.Context, req streamerRequest) (*entity.Streamer, error) {
	now := s.now()
	streamer := &entity.Streamer{ID: uuid.NewString(), CreatedAt: now}
	if err := fillStreamer(streamer, req, now); err != nil {
		return nil, err
	}
	if err := s.streamers.Create(ctx, streamer); err != nil {
		return nil, translateRepoError(err)
	}
	return streamer, nil
}

func (s *CatalogService) UpdateStreamer(ctx context.Context, id string, req streamerRequest) (*entity.Streamer, error) {
	streamer, err := s.streamers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if streamer == nil {
		return nil, notFoundError(repository.ErrStreamerNotFound.Error(), repository.ErrStreamerNotFound)
	}
	if err := fillStreamer(streamer, req, s.now()); err != nil {
		return nil, err
	}
	if err := s.streamers.Update(ctx, streamer); err != nil {
		return nil, translateRepoError(err)
	}
	return streamer, nil
}

func (s *CatalogService) DeleteStreamer(ctx context.Context, id string) error {
	return translateRepoError(s.streamers.Delete(ctx, id))
}

func fillStreamer(streamer *entity.Streamer, req streamerRequest, now time.Time) error {
	name := strings.TrimSpace(req.GetName())
	email := strings.TrimSpace(req.GetEmail())
	if name == "" || email == "" {
		return validationError("nome and email are required")
	}
	streamer.Name = name
	streamer.Email = email
	streamer.Phone = normalizeOptionalString(req.GetPhone())
	streamer.SteamID = normalizeOptionalString(req.GetSteamId())
	streamer.YouTube = normalizeOptionalString(req.GetYoutube())
	streamer.Instagram = normalizeOptionalString(req.GetInstagram())
	streamer.Facebook = normalizeOptionalString(req.GetFacebook())
	streamer.UpdatedAt = now
	return nil
}

// Streamer coupons

func (s *CatalogService) ListStreamerCoupons(ctx context.Context, streamerID string) ([]*entity.StreamerCoupon, error) {
	streamerID = strings.TrimSpace(streamerID)
	if streamerID == "" {
		return nil, validationError("streamer_id is required")
	}
	return s.streamerCoupons.ListByStreamer(ctx, streamerID)
}

func (s *CatalogService) CreateStreamerCoupon(ctx context.Context, req streamerCouponRequest) (*entity.StreamerCoupon, error) {
	streamerID := strings.TrimSpace(req.GetStreamerId())
	if streamerID == "" {
		return nil, validationError("streamer_id is required")
	}
	streamer, err := s.streamers.FindByID(ctx, streamerID)
	if err != nil {
		return nil, err
	}
	if streamer == nil {
		return nil, notFoundError(repository.ErrStreamerNotFound.Error(), repository.ErrStreamerNotFound)
	}

	now := s.now()
	coupon := &entity.StreamerCoupon{ID: uuid.NewString(), StreamerID: streamerID, CreatedAt: now}
	if err := fillStreamerCoupon(coupon, req, now); err != nil {
		return nil, err
	}
	if err := s.streamerCoupons.Create(ctx, coupon); err != nil {
		return nil, translateRepoError(err)
	}
	return coupon, nil
}

func (s *CatalogService) UpdateStreamerCoupon(ctx context.Context, id string, req streamerCouponRequest) (*entity.StreamerCoupon, error) {
	coupon, err := s.streamerCoupons.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if coupon == nil {
		return nil, notFoundError(repository.ErrCouponNotFound.Error(), repository.ErrCouponNotFound)
	}
	if err := fillStreamerCoupon(coupon, req, s.now()); err != nil {
		return nil, err
	}
	if err := s.streamerCoupons.Update(ctx, coupon); err != nil {
		return nil, translateRepoError(err)
	}
	return coupon, nil
}

func (s *CatalogService) DeleteStreamerCoupon(ctx context.Context, id string) error {
	return translateRepoError(s.streamerCoupons.Delete(ctx, id))
}

func fillStreamerCoupon(coupon *entity.StreamerCoupon, req streamerCouponRequest, now time.Time) error {
	name := strings.TrimSpace(req.GetName())
	code := strings.TrimSpace(req.GetCode())
	if name == "" || code == "" {
		return validationError("nome and codigo are required")
	}
	startsAt, endsAt := req.GetStartsAt(), req.GetEndsAt()
	if startsAt.IsZero() || endsAt.IsZero() {
		return validationError("data_inicio and data_fim are required")
	}
	if startsAt.After(endsAt) {
		return validationError("data_inicio must not be after data_fim")
	}

	discount, err := couponDiscount(req.GetValue(), req.GetPercentage())
	if err != nil {
		return err
	}

	coupon.Name = name
	coupon.Code = code
	coupon.Description = normalizeOptionalString(req.GetDescription())
	coupon.StartsAt = startsAt.UTC()
	coupon.EndsAt = endsAt.UTC()
	coupon.Discount = discount
	coupon.UpdatedAt = now
	return nil
}

func couponDiscount(value, percentage *decimal.Decimal) (entity.Discount, error) {
	switch {
	case value != nil && percentage != nil:
		return nil, validationError("informe apenas valor ou porcentagem")
	case value != nil:
		if !value.IsPositive() {
			return nil, validationError("valor must be greater than zero")
		}
		return entity.FixedDiscount{Value: *value}, nil
	case percentage != nil:
		if err := validatePercentage(*percentage, "porcentagem"); err != nil {
			return nil, err
		}
		return entity.PercentageDiscount{Percent: *percentage}, nil
	default:
		return nil, validationError("valor or porcentagem is required")
	}
}

func validatePercentage(value decimal.Decimal, field string) error {
	if !value.IsPositive() || value.GreaterThan(hundred) {
		return validationError("%s must be greater than 0 and at most 100", field)
	}
	return nil
}

// Campaigns

func (s *CatalogService) ListCampaigns(ctx context.Context, streamerID string) ([]*entity.StreamerCampaign, error) {
	return s.campaigns.List(ctx, repository.CampaignFilter{StreamerID: strings.TrimSpace(streamerID)})
}

func (s *CatalogService) CreateCampaign(ctx context.Context, req campaignRequest) (*entity.StreamerCampaign, error) {
	streamerID := strings.TrimSpace(req.GetStreamerId())
	if streamerID == "" {
		return nil, validationError("streamer_id is required")
	}
	streamer, err := s.streamers.FindByID(ctx, streamerID)
	if err != nil {
		return nil, err
	}
	if streamer == nil {
		return nil, notFoundError(repository.ErrStreamerNotFound.Error(), repository.ErrStreamerNotFound)
	}

	now := s.now()
	campaign := &entity.StreamerCampaign{ID: uuid.NewString(), StreamerID: streamerID, CreatedAt: now}
	if err := fillCampaign(campaign, req, now); err != nil {
		return nil, err
	}
	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, translateRepoError(err)
	}
	return campaign, nil
}

func (s *CatalogService) UpdateCampaign(ctx context.Context, id string, req campaignRequest) (*entity.StreamerCampaign, error) {
	campaign, err := s.campaigns.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, notFoundError(repository.ErrCampaignNotFound.Error(), repository.ErrCampaignNotFound)
	}
	if err := fillCampaign(campaign, req, s.now()); err != nil {
		return nil, err
	}
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, translateRepoError(err)
	}
	return campaign, nil
}

func (s *CatalogService) DeleteCampaign(ctx context.Context, id string) error {
	return translateRepoError(s.campaigns.Delete(ctx, id))
}

func fillCampaign(campaign *entity.StreamerCampaign, req campaignRequest, now time.Time) error {
	name := strings.TrimSpace(req.GetName())
	if name == "" {
		return validationError("nome is required")
	}
	startsAt, endsAt := req.GetStartsAt(), req.GetEndsAt()
	if startsAt.IsZero() || endsAt.IsZero() {
		return validationError("data_inicio and data_fim are required")
	}
	if startsAt.After(endsAt) {
		return validationError("data_inicio must not be after data_fim")
	}
	if req.GetValue().IsNegative() {
		return validationError("valor must not be negative")
	}

	campaign.Name = name
	campaign.Description = normalizeOptionalString(req.GetDescription())
	campaign.StartsAt = startsAt.UTC()
	campaign.EndsAt = endsAt.UTC()
	campaign.Value = req.GetValue()
	campaign.UpdatedAt = now
	return nil
}

// Global discount coupons

func (s *CatalogService) ListDiscountCoupons(ctx context.Context) ([]*entity.DiscountCoupon, error) {
	return s.discountCoupons.List(ctx)
}

func (s *CatalogService) CreateDiscountCoupon(ctx context.Context, req discountCouponRequest) (*entity.DiscountCoupon, error) {
	now := s.now()
	coupon := &entity.DiscountCoupon{ID: uuid.NewString(), CreatedAt: now}
	if err := fillDiscountCoupon(coupon, req, now); err != nil {
		return nil, err
	}
	if err := s.discountCoupons.Create(ctx, coupon); err != nil {
		return nil, translateRepoError(err)
	}
	return coupon, nil
}

func (s *CatalogService) UpdateDiscountCoupon(ctx context.Context, id string, req discountCouponRequest) (*entity.DiscountCoupon, error) {
	coupon := &entity.DiscountCoupon{ID: strings.TrimSpace(id)}
	if err := fillDiscountCoupon(coupon, req, s.now()); err != nil {
		return nil, err
	}
	if err := s.discountCoupons.Update(ctx, coupon); err != nil {
		return nil, translateRepoError(err)
	}
	return coupon, nil
}

func (s *CatalogService) DeleteDiscountCoupon(ctx context.Context, id string) error {
	return translateRepoError(s.discountCoupons.Delete(ctx, id))
}

func fillDiscountCoupon(coupon *entity.DiscountCoupon, req discountCouponRequest, now time.Time) error {
	code := strings.TrimSpace(req.GetCode())
	if code == "" {
		return validationError("code is required")
	}
	if err := validatePercentage(req.GetPercentage(), "discount_percentage"); err != nil {
		return err
	}
	coupon.Code = code
	coupon.Percentage = req.GetPercentage()
	coupon.Active = req.GetActive()
	coupon.UpdatedAt = now
	return nil
}

// Servers and mods

func (s *CatalogService) ListServers(ctx context.Context) ([]*entity.Server, error) {
	return s.servers.List(ctx)
}

func (s *CatalogService) CreateServer(ctx context.Context, req serverRequest) (*entity.Server, error) {
	now := s.now()
	server := &entity.Server{ID: uuid.NewString(), CreatedAt: now, Mods: []*entity.ServerMod{}}
	if err := fillServer(server, req, now); err != nil {
		return nil, err
	}
	if err := s.servers.Create(ctx, server); err != nil {
		return nil, translateRepoError(err)
	}
	return server, nil
}

func (s *CatalogService) UpdateServer(ctx context.Context, id string, req serverRequest) (*entity.Server, error) {
	server, err := s.servers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, notFoundError(repository.ErrServerNotFound.Error(), repository.ErrServerNotFound)
	}
	if err := fillServer(server, req, s.now()); err != nil {
		return nil, err
	}
	if err := s.servers.Update(ctx, server); err != nil {
		return nil, translateRepoError(err)
	}
	return server, nil
}

func (s *CatalogService) DeleteServer(ctx context.Context, id string) error {
	return translateRepoError(s.servers.Delete(ctx, id))
}

func fillServer(server *entity.Server, req serverRequest, now time.Time) error {
	name := strings.TrimSpace(req.GetName())
	host := strings.TrimSpace(req.GetHost())
	if name == "" || host == "" {
		return validationError("nome and host are required")
	}
	if req.GetMonthlyCost().IsNegative() {
		return validationError("valor_mensal must not be negative")
	}
	server.Name = name
	server.Host = host
	server.MonthlyCost = req.GetMonthlyCost()
	server.UpdatedAt = now
	return nil
}

func (s *CatalogService) ListServerMods(ctx context.Context, serverID string) ([]*entity.ServerMod, error) {
	serverID = strings.TrimSpace(serverID)
	if serverID == "" {
		return nil, validationError("servidor_id is required")
	}
	return s.servers.ListMods(ctx, serverID)
}

func (s *CatalogService) CreateServerMod(ctx context.Context, req serverModRequest) (*entity.ServerMod, error) {
	serverID := strings.TrimSpace(req.GetServerId())
	if serverID == "" {
		return nil, validationError("servidor_id is required")
	}
	now := s.now()
	mod := &entity.ServerMod{ID: uuid.NewString(), ServerID: serverID, CreatedAt: now}
	if err := fillServerMod(mod, req, now); err != nil {
		return nil, err
	}
	if err := s.servers.CreateMod(ctx, mod); err != nil {
		return nil, translateRepoError(err)
	}
	return mod, nil
}

func (s *CatalogService) UpdateServerMod(ctx context.Context, id string, req serverModRequest) (*entity.ServerMod, error) {
	mod := &entity.ServerMod{ID: strings.TrimSpace(id), ServerID: strings.TrimSpace(req.GetServerId())}
	if err := fillServerMod(mod, req, s.now()); err != nil {
		return nil, err
	}
	if err := s.servers.UpdateMod(ctx, mod); err != nil {
		return nil, translateRepoError(err)
	}
	return mod, nil
}

func (s *CatalogService) DeleteServerMod(ctx context.Context, id string) error {
	return translateRepoError(s.servers.DeleteMod(ctx, id))
}

func fillServerMod(mod *entity.ServerMod, req serverModRequest, now time.Time) error {
	name := strings.TrimSpace(req.GetName())
	if name == "" {
		return validationError("nome_mod is required")
	}
	if req.GetMonthlyCost().IsNegative() {
		return validationError("valor_mensal must not be negative")
	}
	mod.Name = name
	mod.Discord = normalizeOptionalString(req.GetDiscord())
	mod.SteamStore = normalizeOptionalString(req.GetSteamStore())
	mod.MonthlyCost = req.GetMonthlyCost()
	mod.UpdatedAt = now
	return nil
}

// VIP packages

func (s *CatalogService) ListVipPackages(ctx context.Context) ([]*entity.VipPackage, error) {
	return s.vipPackages.List(ctx)
}

func (s *CatalogService) CreateVipPackage(ctx context.Context, req vipPackageRequest) (*entity.VipPackage, error) {
	now := s.now()
	pkg := &entity.VipPackage{ID: uuid.NewString(), CreatedAt: now}
	if err := fillVipPackage(pkg, req, now); err != nil {
		return nil, err
	}
	if err := s.vipPackages.Create(ctx, pkg); err != nil {
		return nil, translateRepoError(err)
	}
	return pkg, nil
}

func (s *CatalogService) UpdateVipPackage(ctx context.Context, id string, req vipPackageRequest) (*entity.VipPackage, error) {
	pkg := &entity.VipPackage{ID: strings.TrimSpace(id)}
	if err := fillVipPackage(pkg, req, s.now()); err != nil {
		return nil, err
	}
	if err := s.vipPackages.Update(ctx, pkg); err != nil {
		return nil, translateRepoError(err)
	}
	return pkg, nil
}

func (s *CatalogService) DeleteVipPackage(ctx context.Context, id string) error {
	return translateRepoError(s.vipPackages.Delete(ctx, id))
}

func fillVipPackage(pkg *entity.VipPackage, req vipPackageRequest, now time.Time) error {
	name := strings.TrimSpace(req.GetName())
	if name == "" {
		return validationError("nome is required")
	}
	if !req.GetValue().IsPositive() {
		return validationError("valor must be greater than zero")
	}
	pkg.Name = name
	pkg.Description = normalizeOptionalString(req.GetDescription())
	pkg.Value = req.GetValue()
	pkg.UpdatedAt = now
	return nil
}

// Secrets

const maskedSecret = "••••••••"

// ListSecrets hides values unless reveal is set.
func (s *CatalogService) ListSecrets(ctx context.Context, reveal bool) ([]*entity.AppSecret, error) {
	items, err := s.secrets.List(ctx)
	if err != nil {
		return nil, err
	}
	if reveal {
		return items, nil
	}
	for _, item := range items {
		if item.Value != "" {
			item.Value = maskedSecret
		}
	}
	return items, nil
}

func (s *CatalogService) UpsertSecret(ctx context.Context, req secretRequest) (*entity.AppSecret, error) {
	key := strings.TrimSpace(req.GetKey())
	if key == "" {
		return nil, validationError("key is required")
	}
	now := s.now()
	secret := &entity.AppSecret{
		ID:          uuid.NewString(),
		Key:         key,
		Value:       strings.TrimSpace(req.GetValue()),
		Description: req.GetDescription(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.secrets.Upsert(ctx, secret); err != nil {
		return nil, err
	}
	secret.Value = maskedSecret
	return secret, nil
}

func (s *CatalogService) DeleteSecret(ctx context.Context, key string) error {
	return translateRepoError(s.secrets.Delete(ctx, strings.TrimSpace(key)))
}
