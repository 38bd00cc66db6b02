package store

import (
	"context"
	"fmt"
)

// DefaultExperts são os experts semeados no boot
var DefaultExperts = []NewExpert{
	{
		Username:         "CryptoSage",
		WalletAddress:    "0x1234567890AbCdEf1234567890AbCdEf12345678",
		Avatar:           "https://images.unsplash.com/photo-1599566150163-29194dcaad36",
		Specialty:        "Crypto",
		WinRate:          92.5,
		TotalPredictions: 240,
	},
	{
		Username:         "SportsMaster",
		WalletAddress:    "0x2345678901BcDeF2345678901BcDeF23456789",
		Avatar:           "https://images.unsplash.com/photo-1535713875002-d1d0cf377fde",
		Specialty:        "Sports",
		WinRate:          85.8,
		TotalPredictions: 312,
	},
}

// SeedExperts grava DefaultExperts se o storage ainda não tem nenhum expert.
// Retorna quantos foram inseridos.
func SeedExperts(ctx context.Context, s Storage) (int, error) {
	existing, err := s.ListExperts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list experts: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, x := range DefaultExperts {
		if _, err := s.CreateExpert(ctx, x); err != nil {
			return 0, fmt.Errorf("seed expert %s: %w", x.Username, err)
		}
	}
	return len(DefaultExperts), nil
}
