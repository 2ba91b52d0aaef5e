// Script to compare per-backend result counts for Sentinel-1 data
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

var backends = map[string]string{
	"peps":  "https://peps.cnes.fr/resto/api/collections/S1/search.json",
	"theia": "https://theia.cnes.fr/atdistrib/resto2/api/collections/SENTINEL1/search.json",
}

// France bounding box (approximate)
var franceBBox = "-5.0,41.0,10.0,52.0"

func main() {
	// Last year date range
	endDate := time.Now()
	startDate := endDate.AddDate(-1, 0, 0)

	fmt.Println("=== Backend Comparison: Sentinel-1 over France (Last Year) ===")
	fmt.Printf("Date range: %s to %s\n", startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	fmt.Printf("Bounding box: %s\n\n", franceBBox)

	counts := make(map[string]int)
	for name, base := range backends {
		fmt.Printf("Querying %s...\n", name)
		count, err := queryBackend(base, startDate, endDate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s query failed: %v\n", name, err)
			continue
		}
		counts[name] = count
		fmt.Printf("%s count: %d\n\n", name, count)
	}

	if len(counts) < len(backends) {
		return
	}

	fmt.Println("=== Comparison ===")
	for name, count := range counts {
		fmt.Printf("%-8s %d\n", name, count)
	}
	if counts["peps"] != counts["theia"] {
		fmt.Println("\nNote: Differences may occur due to:")
		fmt.Println("  - Different ingestion delays between backends")
		fmt.Println("  - Backend-specific collection scoping (S1 vs SENTINEL1)")
		fmt.Println("  - Processing level differences")
	}
}

func queryBackend(base string, start, end time.Time) (int, error) {
	params := url.Values{}
	params.Set("box", franceBBox)
	params.Set("startDate", start.Format("2006-01-02T15:04:05Z"))
	params.Set("completionDate", end.Format("2006-01-02T15:04:05Z"))
	params.Set("maxRecords", "1")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Get(base + "?" + params.Encode())
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Properties struct {
			TotalResults *int `json:"totalResults"`
		} `json:"properties"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("parse response failed: %w", err)
	}

	if result.Properties.TotalResults != nil {
		return *result.Properties.TotalResults, nil
	}
	return len(result.Features), nil
}
