package main

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	// Configuration
	// Ensure this URL matches the one defined in your LOCALTESTING.md
	url := "http://localhost:8080/api/v1/devices/load-test-device/punches"
	contentType := "application/json"

	numBadges := 2000
	batchesPerBadge := 2
	totalRequests := numBadges * batchesPerBadge
	concurrency := 50 // Number of concurrent requests to avoid local port exhaustion

	fmt.Printf("Starting load test: %d badges (%d batches each) to %s with concurrency %d\n", numBadges, batchesPerBadge, url, concurrency)

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency) // Semaphore to limit concurrency

	var successCount int64
	var failCount int64

	startTime := time.Now()

	for i := 0; i < numBadges; i++ {
		wg.Add(1)
		sem <- struct{}{} // Acquire token

		badgeID := fmt.Sprintf("load-test-badge-%d", i)

		go func(badge string) {
			defer wg.Done()
			defer func() { <-sem }() // Release token

			for j := 0; j < batchesPerBadge; j++ {
				// Each batch carries a single punch so alternating batches toggle
				// the badge between checked-in and checked-out.
				punchedAt := time.Now().Add(time.Duration(j) * 2 * time.Minute).UTC().Format(time.RFC3339)
				payload := []byte(fmt.Sprintf(`{"timezone": "UTC", "punches": [{"badgeId": "%s", "punchedAt": "%s"}]}`, badge, punchedAt))

				resp, err := http.Post(url, contentType, bytes.NewBuffer(payload))
				if err != nil {
					atomic.AddInt64(&failCount, 1)
					continue
				}

				if resp.StatusCode >= 200 && resp.StatusCode < 300 {
					atomic.AddInt64(&successCount, 1)
				} else {
					atomic.AddInt64(&failCount, 1)
				}
				resp.Body.Close()
			}
		}(badgeID)
	}

	wg.Wait()
	duration := time.Since(startTime)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", totalRequests)
	fmt.Printf("Successful:     %d\n", successCount)
	fmt.Printf("Failed:         %d\n", failCount)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(totalRequests)/duration.Seconds())
}
