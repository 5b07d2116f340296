package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
)

type LoadTestConfig struct {
	BaseURL             string
	ConcurrentUsers     int
	TestDurationSeconds int
	RampUpSeconds       int
}

type TestResult struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	CartMutations      int64
	CheckoutAttempts   int64
	CheckoutsSigned    int64
	ResponseTimes      []time.Duration
	Errors             map[string]int64
	mutex              sync.Mutex
}

type PerformanceMetrics struct {
	StartTime           time.Time        `json:"start_time"`
	EndTime             time.Time        `json:"end_time"`
	TotalDuration       time.Duration    `json:"total_duration"`
	TotalRequests       int64            `json:"total_requests"`
	ThroughputRPS       float64          `json:"throughput_rps"`
	SuccessfulRPS       float64          `json:"successful_rps"`
	P50ResponseTime     time.Duration    `json:"p50_response_time"`
	P95ResponseTime     time.Duration    `json:"p95_response_time"`
	P99ResponseTime     time.Duration    `json:"p99_response_time"`
	ErrorRate           float64          `json:"error_rate"`
	CartMutations       int64            `json:"cart_mutations"`
	CheckoutSuccessRate float64          `json:"checkout_success_rate"`
	Errors              map[string]int64 `json:"errors"`
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type LoadTester struct {
	config     *LoadTestConfig
	result     *TestResult
	transport  *http.Transport
	productIDs []int
	catalogMu  sync.Mutex
}

func NewLoadTester(config *LoadTestConfig) *LoadTester {
	return &LoadTester{
		config: config,
		result: &TestResult{
			ResponseTimes: make([]time.Duration, 0),
			Errors:        make(map[string]int64),
		},
		transport: &http.Transport{
			MaxIdleConns:        1000,
			MaxIdleConnsPerHost: 100,
			MaxConnsPerHost:     200,
		},
	}
}

// newShopperClient gives every shopper its own cookie jar so each one carries a separate cart.
func (lt *LoadTester) newShopperClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: lt.transport,
		Jar:       jar,
	}, nil
}

func (lt *LoadTester) recordResponse(duration time.Duration, success bool, operation string, err error) {
	lt.result.mutex.Lock()
	defer lt.result.mutex.Unlock()

	atomic.AddInt64(&lt.result.TotalRequests, 1)
	lt.result.ResponseTimes = append(lt.result.ResponseTimes, duration)

	if success {
		atomic.AddInt64(&lt.result.SuccessfulRequests, 1)
		return
	}
	atomic.AddInt64(&lt.result.FailedRequests, 1)
	if err != nil {
		lt.result.Errors[fmt.Sprintf("%s: %s", operation, err.Error())]++
	}
}

func (lt *LoadTester) do(client *http.Client, operation, method, path string, body interface{}, out interface{}) bool {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			lt.recordResponse(0, false, operation, err)
			return false
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, lt.config.BaseURL+path, reader)
	if err != nil {
		lt.recordResponse(0, false, operation, err)
		return false
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		lt.recordResponse(duration, false, operation, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		lt.recordResponse(duration, false, operation, fmt.Errorf("status %d", resp.StatusCode))
		return false
	}

	if out != nil {
		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			lt.recordResponse(duration, false, operation, err)
			return false
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			lt.recordResponse(duration, false, operation, err)
			return false
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	lt.recordResponse(duration, true, operation, nil)
	return true
}

func (lt *LoadTester) catalogIDs(client *http.Client) []int {
	lt.catalogMu.Lock()
	defer lt.catalogMu.Unlock()

	if len(lt.productIDs) > 0 {
		return lt.productIDs
	}

	var products []struct {
		ID int `json:"id"`
	}
	if !lt.do(client, "products", http.MethodGet, "/products", nil, &products) {
		return nil
	}
	for _, p := range products {
		lt.productIDs = append(lt.productIDs, p.ID)
	}
	return lt.productIDs
}

func (lt *LoadTester) simulateShopper(ctx context.Context, seed int64, wg *sync.WaitGroup) {
	defer wg.Done()

	rng := rand.New(rand.NewSource(seed))
	profile := pickProfile(rng)
	client, err := lt.newShopperClient()
	if err != nil {
		lt.recordResponse(0, false, "session", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			lt.runSession(client, rng, profile)
			time.Sleep(profile.SessionDelay + time.Duration(rng.Intn(500))*time.Millisecond)
		}
	}
}

func (lt *LoadTester) runSession(client *http.Client, rng *rand.Rand, profile ShopperProfile) {
	ids := lt.catalogIDs(client)
	if len(ids) == 0 {
		return
	}

	lt.do(client, "products", http.MethodGet, "/products", nil, nil)

	items := rng.Intn(profile.ItemsPerSession) + 1
	for i := 0; i < items; i++ {
		id := ids[rng.Intn(len(ids))]
		lt.do(client, "product", http.MethodGet, fmt.Sprintf("/products/%d", id), nil, nil)
		if lt.do(client, "add_item", http.MethodPost, "/cart/items", map[string]int{"product_id": id}, nil) {
			atomic.AddInt64(&lt.result.CartMutations, 1)
		}
	}

	var cart struct {
		Lines []struct {
			ID       int `json:"id"`
			Quantity int `json:"quantity"`
		} `json:"lines"`
	}
	if !lt.do(client, "view_cart", http.MethodGet, "/cart", nil, &cart) || len(cart.Lines) == 0 {
		return
	}

	if rng.Float64() < profile.UpdateProbability {
		line := cart.Lines[rng.Intn(len(cart.Lines))]
		qty := rng.Intn(4)
		path := fmt.Sprintf("/cart/items/%d", line.ID)
		if lt.do(client, "update_item", http.MethodPut, path, map[string]int{"quantity": qty}, nil) {
			atomic.AddInt64(&lt.result.CartMutations, 1)
		}
	}

	switch {
	case rng.Float64() < profile.CheckoutProbability:
		atomic.AddInt64(&lt.result.CheckoutAttempts, 1)
		var checkout struct {
			TransactionID string `json:"transaction_uuid"`
		}
		if lt.do(client, "checkout", http.MethodPost, "/checkout", nil, &checkout) && checkout.TransactionID != "" {
			atomic.AddInt64(&lt.result.CheckoutsSigned, 1)
		}
		// The gateway is never contacted; the shopper walks away from the payment form.
		lt.do(client, "payment_failure", http.MethodGet, "/payment/failure?oid="+checkout.TransactionID, nil, nil)
	case rng.Float64() < profile.AbandonProbability:
		if lt.do(client, "clear_cart", http.MethodDelete, "/cart", nil, nil) {
			atomic.AddInt64(&lt.result.CartMutations, 1)
		}
	}
}

func (lt *LoadTester) Run() *PerformanceMetrics {
	fmt.Printf("Starting load test with %d concurrent shoppers for %d seconds\n",
		lt.config.ConcurrentUsers, lt.config.TestDurationSeconds)

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(lt.config.TestDurationSeconds)*time.Second)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nReceived interrupt signal, stopping test...")
			cancel()
		case <-ctx.Done():
		}
	}()

	startTime := time.Now()
	var wg sync.WaitGroup

	userInterval := time.Duration(lt.config.RampUpSeconds) * time.Second / time.Duration(lt.config.ConcurrentUsers)

	go lt.monitorProgress(ctx, startTime)

	for i := 0; i < lt.config.ConcurrentUsers; i++ {
		wg.Add(1)
		go lt.simulateShopper(ctx, startTime.UnixNano()+int64(i), &wg)

		if i < lt.config.ConcurrentUsers-1 {
			select {
			case <-ctx.Done():
			case <-time.After(userInterval):
			}
		}
	}

	wg.Wait()
	return lt.calculateMetrics(startTime, time.Now())
}

func (lt *LoadTester) monitorProgress(ctx context.Context, startTime time.Time) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := time.Since(startTime)
			totalReqs := atomic.LoadInt64(&lt.result.TotalRequests)
			successReqs := atomic.LoadInt64(&lt.result.SuccessfulRequests)
			checkouts := atomic.LoadInt64(&lt.result.CheckoutsSigned)

			fmt.Printf("[%s] Total: %d, Success: %d, RPS: %.1f, Checkouts: %d\n",
				elapsed.Round(time.Second), totalReqs, successReqs, float64(totalReqs)/elapsed.Seconds(), checkouts)
		}
	}
}

func (lt *LoadTester) calculateMetrics(startTime, endTime time.Time) *PerformanceMetrics {
	lt.result.mutex.Lock()
	defer lt.result.mutex.Unlock()

	totalDuration := endTime.Sub(startTime)
	totalRequests := atomic.LoadInt64(&lt.result.TotalRequests)
	successfulRequests := atomic.LoadInt64(&lt.result.SuccessfulRequests)

	metrics := &PerformanceMetrics{
		StartTime:     startTime,
		EndTime:       endTime,
		TotalDuration: totalDuration,
		TotalRequests: totalRequests,
		CartMutations: atomic.LoadInt64(&lt.result.CartMutations),
		Errors:        lt.result.Errors,
	}

	if totalDuration.Seconds() > 0 {
		metrics.ThroughputRPS = float64(totalRequests) / totalDuration.Seconds()
		metrics.SuccessfulRPS = float64(successfulRequests) / totalDuration.Seconds()
	}
	if totalRequests > 0 {
		metrics.ErrorRate = float64(atomic.LoadInt64(&lt.result.FailedRequests)) / float64(totalRequests) * 100
	}
	if attempts := atomic.LoadInt64(&lt.result.CheckoutAttempts); attempts > 0 {
		metrics.CheckoutSuccessRate = float64(atomic.LoadInt64(&lt.result.CheckoutsSigned)) / float64(attempts) * 100
	}

	if len(lt.result.ResponseTimes) > 0 {
		sorted := make([]time.Duration, len(lt.result.ResponseTimes))
		copy(sorted, lt.result.ResponseTimes)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		metrics.P50ResponseTime = percentile(sorted, 50)
		metrics.P95ResponseTime = percentile(sorted, 95)
		metrics.P99ResponseTime = percentile(sorted, 99)
	}

	return metrics
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)) * float64(p) / 100.0)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func (pm *PerformanceMetrics) PrintReport() {
	fmt.Printf("STOREFRONT LOAD TEST RESULTS\n")
	fmt.Printf("Test Duration: %v\n", pm.TotalDuration.Round(time.Second))
	fmt.Printf("Start Time: %s\n", pm.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("End Time: %s\n", pm.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("\n")

	fmt.Printf("THROUGHPUT METRICS:\n")
	fmt.Printf("- Total Requests: %d\n", pm.TotalRequests)
	fmt.Printf("- Total RPS: %.2f requests/second\n", pm.ThroughputRPS)
	fmt.Printf("- Successful RPS: %.2f requests/second\n", pm.SuccessfulRPS)
	fmt.Printf("- Error Rate: %.2f%%\n", pm.ErrorRate)
	fmt.Printf("\n")

	fmt.Printf("RESPONSE TIME METRICS:\n")
	fmt.Printf("- P50 Response Time: %v\n", pm.P50ResponseTime.Round(time.Millisecond))
	fmt.Printf("- P95 Response Time: %v\n", pm.P95ResponseTime.Round(time.Millisecond))
	fmt.Printf("- P99 Response Time: %v\n", pm.P99ResponseTime.Round(time.Millisecond))
	fmt.Printf("\n")

	fmt.Printf("BUSINESS METRICS:\n")
	fmt.Printf("- Cart Mutations: %d\n", pm.CartMutations)
	fmt.Printf("- Checkout Success Rate: %.2f%%\n", pm.CheckoutSuccessRate)
	if len(pm.Errors) > 0 {
		fmt.Printf("\nERRORS:\n")
		for msg, count := range pm.Errors {
			fmt.Printf("- %s: %d\n", msg, count)
		}
	}
	fmt.Printf("\n")
}

func (pm *PerformanceMetrics) SaveToFile(filename string) error {
	data, err := json.MarshalIndent(pm, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
