package valueobject

import (
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/pokemarket-backend/internal/pkg/apperror"
)

// SellerShareRate доля продавца с каждой завершённой сделки.
var SellerShareRate = decimal.NewFromFloat(0.90)

// Split раскладывает сумму заказа на долю продавца и комиссию площадки.
type Split struct {
	Seller   decimal.Decimal `json:"seller"`
	Platform decimal.Decimal `json:"platform"`
}

// SplitAmount считает 90/10 с округлением доли продавца до копеек.
// Seller + Platform всегда равно total.
func SplitAmount(total decimal.Decimal) Split {
	seller := total.Mul(SellerShareRate).Round(2)
	return Split{
		Seller:   seller,
		Platform: total.Sub(seller),
	}
}

// NewMoney проверяет, что сумма неотрицательна, и приводит её к двум знакам.
func NewMoney(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	return amount.Round(2), nil
}
