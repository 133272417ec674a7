package main

import (
	"context"
	"flag"
	"fmt"
	"html"
	"log"
	"os"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

func main() {
	dsn := flag.String("dsn", os.Getenv("CLICKHOUSE_URL"), "ClickHouse DSN")
	days := flag.Int("days", 30, "History window in days")
	flag.Parse()

	ctx := context.Background()
	opts, err := clickhouse.ParseDSN(*dsn)
	if err != nil {
		log.Fatalf("Invalid DSN: %v", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		log.Fatal(err)
	}

	if err := conn.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping ClickHouse: %v", err)
	}

	generateReliabilityMix(ctx, conn, *days)
	generateOpponentConfidence(ctx, conn, *days)
}

func generateReliabilityMix(ctx context.Context, conn clickhouse.Conn, days int) {
	fmt.Println("Querying reliability mix...")
	rows, err := conn.Query(ctx, `
		SELECT reliability, count() AS plans
		FROM tactical_plan_history
		WHERE created_at >= now() - toIntervalDay(?)
		GROUP BY reliability
		ORDER BY plans DESC
	`, days)
	if err != nil {
		log.Printf("Failed to query reliability mix: %v", err)
		return
	}
	defer rows.Close()

	var labels []string
	var values []uint64
	var maxVal uint64

	for rows.Next() {
		var label string
		var val uint64
		if err := rows.Scan(&label, &val); err != nil {
			continue
		}
		labels = append(labels, label)
		values = append(values, val)
		if val > maxVal {
			maxVal = val
		}
	}

	if len(labels) == 0 {
		fmt.Println("No plan history found.")
		return
	}

	svg := generateBarChartSVG("Plans by Reliability", labels, values, maxVal, "#4a90e2")
	saveChart("plan_reliability.svg", svg)
}

func generateOpponentConfidence(ctx context.Context, conn clickhouse.Conn, days int) {
	fmt.Println("Querying confidence per opponent...")
	rows, err := conn.Query(ctx, `
		SELECT any(opponent), toUInt64(round(avg(adjusted_confidence))) AS confidence
		FROM tactical_plan_history
		WHERE created_at >= now() - toIntervalDay(?)
		GROUP BY opponent_id
		ORDER BY count() DESC
		LIMIT 10
	`, days)
	if err != nil {
		log.Printf("Failed to query opponent confidence: %v", err)
		return
	}
	defer rows.Close()

	var labels []string
	var values []uint64

	for rows.Next() {
		var label string
		var val uint64
		if err := rows.Scan(&label, &val); err != nil {
			continue
		}
		labels = append(labels, label)
		values = append(values, val)
	}

	if len(labels) == 0 {
		fmt.Println("No plan history found.")
		return
	}

	svg := generateBarChartSVG("Average Adjusted Confidence", labels, values, 100, "#2ecc71")
	saveChart("opponent_confidence.svg", svg)
}

func saveChart(filename string, svg string) {
	err := os.MkdirAll("charts", 0755)
	if err != nil {
		log.Fatal(err)
	}

	err = os.WriteFile("charts/"+filename, []byte(svg), 0644)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Chart generated: charts/%s\n", filename)
}

func generateBarChartSVG(title string, labels []string, values []uint64, maxVal uint64, color string) string {
	width := 600
	height := 400
	padding := 50
	barWidth := (width - 2*padding) / len(labels)
	maxBarHeight := height - 2*padding

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`, width, height, width, height))

	// Background
	sb.WriteString(`<rect width="100%" height="100%" fill="#1a1a1a" />`)

	// Title
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="30" fill="white" font-family="Arial" font-size="20" text-anchor="middle">%s</text>`, width/2, title))

	for i, val := range values {
		barHeight := 0
		if maxVal > 0 {
			barHeight = int((val * uint64(maxBarHeight)) / maxVal)
		}
		x := padding + i*barWidth
		y := height - padding - barHeight
	
		// Bar
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s" rx="4" />`, x+5, y, barWidth-10, barHeight, color))
	
		// Label (rotated)
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="white" font-family="Arial" font-size="12" text-anchor="end" transform="rotate(-45 %d %d)">%s</text>`, x+barWidth/2, height-padding+20, x+barWidth/2, height-padding+20, html.EscapeString(labels[i])))
	
		// Value on top
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="white" font-family="Arial" font-size="10" text-anchor="middle">%d</text>`, x+barWidth/2, y-5, val))
	}

	// X-axis
	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="white" stroke-width="2" />`, padding, height-padding, width-padding, height-padding))

	sb.WriteString(`</svg>`)
	return sb.String()
}
