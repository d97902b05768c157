package mapper

import (
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

func UserToResponse(item *entity.User) *types.User {
	if item == nil {
		return nil
	}
	return &types.User{
		Id:        item.ID,
		Email:     item.Email,
		FullName:  derefString(item.FullName),
		Role:      item.Role,
		CreatedAt: formatTime(item.CreatedAt),
	}
}

func UsersToResponse(items []*entity.User) []*types.User {
	return mapAll(items, UserToResponse)
}

func LoginToResponse(result *service.LoginResult) *types.LoginResponse {
	return &types.LoginResponse{
		Token:     result.Token,
		ExpiresAt: formatTime(result.ExpiresAt),
		User:      UserToResponse(result.User),
	}
}

func StreamerToResponse(item *entity.Streamer) *types.Streamer {
	return &types.Streamer{
		Id:        item.ID,
		Nome:      item.Name,
		Email:     item.Email,
		Telefone:  derefString(item.Phone),
		SteamId:   derefString(item.SteamID),
		Youtube:   derefString(item.YouTube),
		Instagram: derefString(item.Instagram),
		Facebook:  derefString(item.Facebook),
		CreatedAt: formatTime(item.CreatedAt),
	}
}

func StreamersToResponse(items []*entity.Streamer) []*types.Streamer {
	return mapAll(items, StreamerToResponse)
}

func StreamerCouponToResponse(item *entity.StreamerCoupon) *types.StreamerCoupon {
	resp := &types.StreamerCoupon{
		Id:         item.ID,
		StreamerId: item.StreamerID,
		Nome:       item.Name,
		Codigo:     item.Code,
		Descricao:  derefString(item.Description),
		DataInicio: formatTime(item.StartsAt),
		DataFim:    formatTime(item.EndsAt),
	}
	switch discount := item.Discount.(type) {
	case entity.PercentageDiscount:
		resp.Porcentagem = moneyPtr(&discount.Percent)
	case entity.FixedDiscount:
		resp.Valor = moneyPtr(&discount.Value)
	}
	return resp
}

func StreamerCouponsToResponse(items []*entity.StreamerCoupon) []*types.StreamerCoupon {
	return mapAll(items, StreamerCouponToResponse)
}

func CampaignToResponse(item *entity.StreamerCampaign) *types.Campaign {
	return &types.Campaign{
		Id:         item.ID,
		StreamerId: item.StreamerID,
		Nome:       item.Name,
		Descricao:  derefString(item.Description),
		DataInicio: formatTime(item.StartsAt),
		DataFim:    formatTime(item.EndsAt),
		Valor:      Money(item.Value),
	}
}

func CampaignsToResponse(items []*entity.StreamerCampaign) []*types.Campaign {
	return mapAll(items, CampaignToResponse)
}

func DiscountCouponToResponse(item *entity.DiscountCoupon) *types.DiscountCoupon {
	return &types.DiscountCoupon{
		Id:                 item.ID,
		Code:               item.Code,
		DiscountPercentage: Money(item.Percentage),
		Active:             item.Active,
		CreatedAt:          formatTime(item.CreatedAt),
	}
}

func DiscountCouponsToResponse(items []*entity.DiscountCoupon) []*types.DiscountCoupon {
	return mapAll(items, DiscountCouponToResponse)
}

func ServerModToResponse(item *entity.ServerMod) *types.ServerMod {
	return &types.ServerMod{
		Id:          item.ID,
		ServidorId:  item.ServerID,
		NomeMod:     item.Name,
		Discord:     derefString(item.Discord),
		LojaSteam:   derefString(item.SteamStore),
		ValorMensal: Money(item.MonthlyCost),
	}
}

func ServerModsToResponse(items []*entity.ServerMod) []*types.ServerMod {
	return mapAll(items, ServerModToResponse)
}

func ServerToResponse(item *entity.Server) *types.Server {
	return &types.Server{
		Id:          item.ID,
		Nome:        item.Name,
		Host:        item.Host,
		ValorMensal: Money(item.MonthlyCost),
		Mods:        ServerModsToResponse(item.Mods),
	}
}

func ServersToResponse(items []*entity.Server) []*types.Server {
	return mapAll(items, ServerToResponse)
}

func VipPackageToResponse(item *entity.VipPackage) *types.VipPackage {
	return &types.VipPackage{
		Id:        item.ID,
		Nome:      item.Name,
		Descricao: derefString(item.Description),
		Valor:     Money(item.Value),
	}
}

func VipPackagesToResponse(items []*entity.VipPackage) []*types.VipPackage {
	return mapAll(items, VipPackageToResponse)
}

func SecretToResponse(item *entity.AppSecret) *types.Secret {
	return &types.Secret{
		Key:         item.Key,
		Value:       item.Value,
		Description: derefString(item.Description),
		UpdatedAt:   formatTime(item.UpdatedAt),
	}
}

func SecretsToResponse(items []*entity.AppSecret) []*types.Secret {
	return mapAll(items, SecretToResponse)
}

func mapAll[E any, R any](items []E, fn func(E) R) []R {
	result := make([]R, 0, len(items))
	for _, item := range items {
		result = append(result, fn(item))
	}
	return result
}
