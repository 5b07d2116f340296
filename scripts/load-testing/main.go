package main

import (
	"flag"
	"fmt"
	"log"
	"time"
)

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "Storefront base URL")
	profile := flag.String("profile", "default", "Load profile: light, default, heavy or stress")
	flag.Parse()

	config := &LoadTestConfig{
		BaseURL:             *baseURL,
		ConcurrentUsers:     100,
		TestDurationSeconds: 60,
		RampUpSeconds:       10,
	}

	switch *profile {
	case "light":
		config.ConcurrentUsers = 50
		config.TestDurationSeconds = 30
	case "heavy":
		config.ConcurrentUsers = 500
		config.TestDurationSeconds = 300
		config.RampUpSeconds = 30
	case "stress":
		config.ConcurrentUsers = 1000
		config.TestDurationSeconds = 600
		config.RampUpSeconds = 60
	}

	fmt.Printf("Configuration:\n")
	fmt.Printf("- Base URL: %s\n", config.BaseURL)
	fmt.Printf("- Concurrent Shoppers: %d\n", config.ConcurrentUsers)
	fmt.Printf("- Test Duration: %d seconds\n", config.TestDurationSeconds)
	fmt.Printf("- Ramp Up: %d seconds\n", config.RampUpSeconds)
	fmt.Printf("Shopper mix: 20%% buyers, 50%% regulars, 30%% browsers\n\n")

	metrics := NewLoadTester(config).Run()
	metrics.PrintReport()

	filename := fmt.Sprintf("storefront_load_%s.json", time.Now().Format("20060102_150405"))
	if err := metrics.SaveToFile(filename); err != nil {
		log.Printf("Failed to save results to file: %v", err)
	} else {
		fmt.Printf("Results saved to: %s\n", filename)
	}
}
