// Command perf-client floods the payment webhook endpoint the way a provider
// retry storm would and verifies that every delivery is acknowledged with a
// 2xx quickly. Deliveries use an irrelevant topic so no gateway lookups or
// partner mutations happen on the server.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// PerfResult gathers aggregated metrics for the test run.
// Atomic counters are used to avoid lock contention on hot paths.
// LatencySum & P95Latency are in nanoseconds.
//
// P95Latency is maintained via a lightweight reservoir sampler.
type PerfResult struct {
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	LatencySum    int64
	P95Latency    int64
}

const (
	fixedWorkers   = 50
	fixedRPSTarget = 500
	fixedDuration  = 30 * time.Second
	defaultTimeout = 10 * time.Second

	baseURL     = "http://localhost:8080"
	webhookPath = "/webhooks/mercadopago?topic=merchant_order&id=perf"
)

func main() {
	rps := fixedRPSTarget
	duration := fixedDuration
	workers := fixedWorkers

	transport := &http.Transport{
		MaxIdleConns:        workers * 4,
		MaxIdleConnsPerHost: workers * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   defaultTimeout,
	}

	fmt.Println("==========================================")
	fmt.Println("webhook acknowledgement load test")
	fmt.Println("==========================================")
	fmt.Printf("target     : %s%s\n", baseURL, webhookPath)
	fmt.Printf("rps        : %d\n", rps)
	fmt.Printf("duration   : %v\n", duration)
	fmt.Println("==========================================")

	burst := rps / workers
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var result PerfResult
	var wg sync.WaitGroup

	// latencyChan collects latencies for P95 estimation.
	latencyChan := make(chan time.Duration, 4096)
	go trackP95(latencyChan, &result)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil { // context cancelled → exit
					return
				}
				doRequest(httpClient, &result, latencyChan)
			}
		}()
	}

	start := time.Now()
	<-ctx.Done() // wait for duration

	wg.Wait()
	close(latencyChan)

	totalDur := time.Since(start)

	fmt.Println("==========================================")
	fmt.Println("results")
	fmt.Println("==========================================")
	fmt.Printf("elapsed            : %.2fs\n", totalDur.Seconds())
	fmt.Printf("total requests     : %d\n", result.TotalRequests)
	fmt.Printf("acknowledged (2xx) : %d\n", result.SuccessCount)
	fmt.Printf("failed             : %d\n", result.ErrorCount)

	actualRPS := float64(result.SuccessCount) / totalDur.Seconds()
	successRate := float64(result.SuccessCount) / float64(result.TotalRequests) * 100

	var avgLatency time.Duration
	if result.SuccessCount > 0 {
		avgLatency = time.Duration(result.LatencySum / result.SuccessCount)
	}

	fmt.Printf("actual rps         : %.2f\n", actualRPS)
	fmt.Printf("ack rate           : %.2f%%\n", successRate)
	fmt.Printf("avg latency        : %v\n", avgLatency)
	fmt.Printf("p95 latency        : %v\n", time.Duration(result.P95Latency))
	fmt.Println("==========================================")

	// Every delivery must have been acknowledged; anything else means the
	// provider would keep retrying and the backlog would grow.
	if result.ErrorCount > 0 {
		fmt.Printf("FAIL: %d deliveries were not acknowledged with 2xx\n", result.ErrorCount)
		os.Exit(1)
	}

	reportShedCount(httpClient)
	fmt.Println("OK: all deliveries acknowledged")
}

// doRequest posts a single webhook delivery and collects metrics.
func doRequest(httpClient *http.Client, result *PerfResult, latencyChan chan<- time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+webhookPath, nil)
	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}

	start := time.Now()
	atomic.AddInt64(&result.TotalRequests, 1)

	resp, err := httpClient.Do(req)
	latency := time.Since(start)

	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		atomic.AddInt64(&result.SuccessCount, 1)
		atomic.AddInt64(&result.LatencySum, latency.Nanoseconds())
		select {
		case latencyChan <- latency:
		default:
		}
	} else {
		atomic.AddInt64(&result.ErrorCount, 1)
	}
}

// trackP95 maintains a best-effort rolling P95 latency estimation.
func trackP95(latencies <-chan time.Duration, result *PerfResult) {
	const size = 1000
	buf := make([]int64, 0, size)

	for lat := range latencies {
		if len(buf) < size {
			buf = append(buf, lat.Nanoseconds())
		} else {
			// Replace random element (simple reservoir sampling)
			if idx := time.Now().UnixNano() % int64(size); idx < int64(size/10) {
				buf[idx] = lat.Nanoseconds()
			}
		}

		// Update P95 periodically
		if len(buf) >= 100 && len(buf)%100 == 0 {
			copyBuf := make([]int64, len(buf))
			copy(copyBuf, buf)
			quickSort(copyBuf)
			p95Index := int(float64(len(copyBuf)) * 0.95)
			if p95Index >= len(copyBuf) {
				p95Index = len(copyBuf) - 1
			}
			atomic.StoreInt64(&result.P95Latency, copyBuf[p95Index])
		}
	}
}

// quickSort sorts the array in ascending order
func quickSort(arr []int64) {
	if len(arr) < 2 {
		return
	}

	left, right := 0, len(arr)-1
	pivot := len(arr) / 2

	arr[pivot], arr[right] = arr[right], arr[pivot]

	for i := range arr {
		if arr[i] < arr[right] {
			arr[left], arr[i] = arr[i], arr[left]
			left++
		}
	}

	arr[left], arr[right] = arr[right], arr[left]

	quickSort(arr[:left])
	quickSort(arr[left+1:])
}

// reportShedCount scrapes the server's metrics endpoint and prints how many
// deliveries were acknowledged without processing.
func reportShedCount(httpClient *http.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/metrics", nil)
	if err != nil {
		return
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		fmt.Printf("could not scrape metrics: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(body), "\n") {
		if strings.HasPrefix(line, "payment_webhook_events_total") {
			fmt.Println(line)
		}
	}
}
