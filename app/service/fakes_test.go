package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
)

type memoryDonationRepo struct {
	mu        sync.Mutex
	donations map[string]*entity.Donation
	createErr error
	updates   int
	lookups   []int
}

func newMemoryDonationRepo() *memoryDonationRepo {
	return &memoryDonationRepo{donations: map[string]*entity.Donation{}}
}

func (r *memoryDonationRepo) Create(_ context.Context, donation *entity.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, item := range r.donations {
		if item.PaymentID == donation.PaymentID {
			return repository.ErrDonationAlreadyExists
		}
	}
	copyItem := *donation
	r.donations[donation.ID] = &copyItem
	return nil
}

func (r *memoryDonationRepo) UpdateStatus(_ context.Context, id, status string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.donations[id]
	if !ok {
		return repository.ErrDonationNotFound
	}
	item.Status = status
	item.UpdatedAt = updatedAt
	r.updates++
	return nil
}

func (r *memoryDonationRepo) FindByID(_ context.Context, id string) (*entity.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.donations[id]
	if !ok {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *memoryDonationRepo) FindByPaymentID(_ context.Context, paymentID string) (*entity.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.donations {
		if item.PaymentID == paymentID {
			copyItem := *item
			return &copyItem, nil
		}
	}
	return nil, nil
}

func (r *memoryDonationRepo) List(_ context.Context, filter repository.DonationFilter) ([]*entity.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*entity.Donation, 0)
	for _, item := range r.donations {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.SteamID != "" && (item.SteamID == nil || *item.SteamID != filter.SteamID) {
			continue
		}
		copyItem := *item
		items = append(items, &copyItem)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].PaymentID < items[j].PaymentID })
	return items, nil
}

func (r *memoryDonationRepo) ListOpen(_ context.Context, limit int32) ([]*entity.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	open := map[string]bool{}
	for _, status := range entity.OpenDonationStatuses {
		open[status] = true
	}
	items := make([]*entity.Donation, 0)
	for _, item := range r.donations {
		if !open[item.Status] {
			continue
		}
		copyItem := *item
		items = append(items, &copyItem)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].PaymentID < items[j].PaymentID
	})
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items, nil
}

func (r *memoryDonationRepo) ExistingPaymentIDs(_ context.Context, paymentIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, len(paymentIDs))
	found := map[string]bool{}
	for _, id := range paymentIDs {
		for _, item := range r.donations {
			if item.PaymentID == id {
				found[id] = true
			}
		}
	}
	return found, nil
}

func (r *memoryDonationRepo) only() *entity.Donation {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.donations {
		copyItem := *item
		return &copyItem
	}
	return nil
}

type memoryCouponRepo struct {
	streamerCoupons []*entity.StreamerCoupon
	globalCoupons   []*entity.DiscountCoupon
	streamers       map[string]*entity.Streamer
}

func (r *memoryCouponRepo) FindValidByCode(_ context.Context, code string, at time.Time) (*entity.StreamerCoupon, error) {
	for _, coupon := range r.streamerCoupons {
		if strings.EqualFold(coupon.Code, code) && coupon.ValidAt(at) {
			return coupon, nil
		}
	}
	return nil, nil
}

func (r *memoryCouponRepo) FindActiveByCode(_ context.Context, code string) (*entity.DiscountCoupon, error) {
	for _, coupon := range r.globalCoupons {
		if strings.EqualFold(coupon.Code, code) && coupon.Active {
			return coupon, nil
		}
	}
	return nil, nil
}

func (r *memoryCouponRepo) FindByID(_ context.Context, id string) (*entity.Streamer, error) {
	return r.streamers[id], nil
}

type staticSettings struct {
	settings Settings
	err      error
}

func (s *staticSettings) Load(context.Context) (*Settings, error) {
	if s.err != nil {
		return nil, s.err
	}
	copyItem := s.settings
	return &copyItem, nil
}

type fakeGateway struct {
	mu          sync.Mutex
	createFn    func(input *provider.PixChargeInput) (*provider.Payment, error)
	getFn       func(paymentID string) (*provider.Payment, error)
	cancelFn    func(paymentID string) (*provider.Payment, error)
	searchFn    func(since time.Time, limit int) ([]*provider.Payment, error)
	createCalls []*provider.PixChargeInput
	getCalls    int
	cancelCalls int
}

func (g *fakeGateway) CreatePixPayment(_ context.Context, _ string, input *provider.PixChargeInput) (*provider.Payment, error) {
	g.mu.Lock()
	g.createCalls = append(g.createCalls, input)
	g.mu.Unlock()
	if g.createFn == nil {
		return &provider.Payment{ID: "1001", Status: "pending", QRCode: "000201", QRCodeBase64: "iVBOR", TicketURL: "https://mp.example/t"}, nil
	}
	return g.createFn(input)
}

func (g *fakeGateway) GetPayment(_ context.Context, _ string, paymentID string) (*provider.Payment, error) {
	g.mu.Lock()
	g.getCalls++
	g.mu.Unlock()
	return g.getFn(paymentID)
}

func (g *fakeGateway) CancelPayment(_ context.Context, _ string, paymentID string) (*provider.Payment, error) {
	g.mu.Lock()
	g.cancelCalls++
	g.mu.Unlock()
	return g.cancelFn(paymentID)
}

func (g *fakeGateway) SearchPixPayments(_ context.Context, _ string, since time.Time, limit int) ([]*provider.Payment, error) {
	return g.searchFn(since, limit)
}

type pixRequest struct {
	name, email, phone, steamID, description, coupon, pkg string
	amount                                                decimal.Decimal
}

func (r pixRequest) GetName() string            { return r.name }
func (r pixRequest) GetEmail() string           { return r.email }
func (r pixRequest) GetPhone() string           { return r.phone }
func (r pixRequest) GetSteamId() string         { return r.steamID }
func (r pixRequest) GetDescription() string     { return r.description }
func (r pixRequest) GetAmount() decimal.Decimal { return r.amount }
func (r pixRequest) GetCoupon() string          { return r.coupon }
func (r pixRequest) GetPackage() string         { return r.pkg }

type orderRequest struct {
	orderID, donationID string
}

func (r orderRequest) GetOrderId() string    { return r.orderID }
func (r orderRequest) GetDonationId() string { return r.donationID }

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}

func anaRequest(amount string) pixRequest {
	return pixRequest{
		name:    "Ana Silva",
		email:   "ana@example.com",
		phone:   "(11) 99999-9999",
		steamID: "76561198000000000",
		amount:  dec(amount),
	}
}
