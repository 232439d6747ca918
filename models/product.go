package models

import (
	"time"
)

type ProductType string

const (
	ProductSubscription ProductType = "subscription"
	ProductGameToken    ProductType = "game_token"
)

func (p ProductType) IsValid() bool {
	return p == ProductSubscription || p == ProductGameToken
}

type ProductCategory string

const (
	CategoryPUBGRoyalPass        ProductCategory = "pubg_royal_pass"
	CategoryPUBGRoyalPassElite   ProductCategory = "pubg_royal_pass_elite"
	CategoryBooyahPass           ProductCategory = "freefire_booyah_pass"
	CategoryBooyahPassPro        ProductCategory = "freefire_booyah_pass_pro"
	CategoryPUBGUC               ProductCategory = "pubg_uc"
	CategoryFreeFireDiamond      ProductCategory = "freefire_diamond"
)

// Product is an in-game item (season pass, UC/diamond pack) bought with
// wallet tokens rather than real money. Buying one debits the wallet and
// writes a subscription-kind ledger row.
type Product struct {
	ID string `json:"id" gorm:"primaryKey;type:uuid"`

	ProductType ProductType     `json:"product_type" gorm:"size:30;not null"`
	Category    ProductCategory `json:"category" gorm:"size:50;not null"`
	Name        string          `json:"name" gorm:"size:200;not null"`
	Description string          `json:"description" gorm:"type:text"`

	// Price in wallet tokens; TokenAmount is the in-game quantity delivered
	// for game_token products.
	TokenPrice  int `json:"token_price" gorm:"not null;default:0"`
	TokenAmount int `json:"token_amount,omitempty"`

	Validity  string `json:"validity" gorm:"size:30;default:'current_season'"`
	BannerURL string `json:"banner_url" gorm:"size:500"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
