package tictactoe

import "math/rand/v2"

const (
	rewardCodeLength = 5

	// no I, O, 0 or 1
	rewardAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateRewardCode - returns a random promo code. Codes are not unique.
func GenerateRewardCode() string {
	code := make([]byte, rewardCodeLength)
	for i := range code {
		code[i] = rewardAlphabet[rand.IntN(len(rewardAlphabet))] //nolint: gosec // promo codes are not secrets
	}

	return string(code)
}
