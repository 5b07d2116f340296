package main

import (
	"math/rand"
	"time"
)

type ShopperProfile struct {
	Name                string
	Weight              int
	ItemsPerSession     int
	UpdateProbability   float64
	CheckoutProbability float64
	AbandonProbability  float64
	SessionDelay        time.Duration
}

var ShopperProfiles = []ShopperProfile{
	{
		Name:                "buyer",
		Weight:              20,
		ItemsPerSession:     4,
		UpdateProbability:   0.3,
		CheckoutProbability: 0.9,
		AbandonProbability:  0.05,
		SessionDelay:        100 * time.Millisecond,
	},
	{
		Name:                "regular",
		Weight:              50,
		ItemsPerSession:     2,
		UpdateProbability:   0.2,
		CheckoutProbability: 0.5,
		AbandonProbability:  0.2,
		SessionDelay:        300 * time.Millisecond,
	},
	{
		Name:                "browser",
		Weight:              30,
		ItemsPerSession:     1,
		UpdateProbability:   0.05,
		CheckoutProbability: 0.1,
		AbandonProbability:  0.6,
		SessionDelay:        800 * time.Millisecond,
	},
}

func pickProfile(rng *rand.Rand) ShopperProfile {
	total := 0
	for _, p := range ShopperProfiles {
		total += p.Weight
	}
	n := rng.Intn(total)
	for _, p := range ShopperProfiles {
		if n < p.Weight {
			return p
		}
		n -= p.Weight
	}
	return ShopperProfiles[len(ShopperProfiles)-1]
}
