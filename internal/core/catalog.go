package core

import "time"

const (
	InitialHealthPoints = 100
	// ExpenseLogReward is granted for every logged expense regardless of amount.
	ExpenseLogReward = 15
	// ViceDisciplineReward is granted for every resisted vice.
	ViceDisciplineReward = 50

	SpeedbumpHold   = 24 * time.Hour
	RetentionMonths = 2

	DefaultCategory = "General"
	ImpulseCategory = "Impulse"
)

var rewardsCatalog = []Reward{
	{ID: "badge_newbie", Name: "Saver Apprentice", Cost: 100, Icon: "🌱", Type: RewardBadge},
	{ID: "badge_warrior", Name: "Budget Warrior", Cost: 300, Icon: "🛡️", Type: RewardBadge},
	{ID: "badge_master", Name: "Wealth Wizard", Cost: 750, Icon: "🧙‍♂️", Type: RewardBadge},
	{ID: "voucher_coffee", Name: "Skip-a-Coffee Credit", Cost: 200, Icon: "☕", Type: RewardVoucher},
	{ID: "voucher_pro", Name: "Gemini Pro Theme", Cost: 500, Icon: "🎨", Type: RewardVoucher},
	{ID: "badge_gemini", Name: "AI Optimizer", Cost: 1000, Icon: "🤖", Type: RewardBadge},
}

var currencySymbols = map[CurrencyCode]string{
	INR: "₹",
	USD: "$",
	EUR: "€",
	GBP: "£",
}

// Rewards returns a copy of the static catalog in display order.
func Rewards() []Reward {
	return append([]Reward(nil), rewardsCatalog...)
}

// FindReward looks a reward up by id.
func FindReward(id string) (Reward, bool) {
	for _, r := range rewardsCatalog {
		if r.ID == id {
			return r, true
		}
	}
	return Reward{}, false
}

// Symbol returns the display symbol, or the code itself when unknown.
func (c CurrencyCode) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c)
}

// Currencies lists the supported currency codes.
func Currencies() []CurrencyCode {
	return []CurrencyCode{INR, USD, EUR, GBP}
}
