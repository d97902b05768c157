package entity

import (
	"time"
	_ "time/tzdata"
)

// SaoPaulo is the business timezone for receipts, finance months and admin date filters.
var SaoPaulo = loadSaoPaulo()

func loadSaoPaulo() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}
