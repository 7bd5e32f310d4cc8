package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wonny/premarket-signals/internal/contracts"
)

const (
	width      = 80
	title      = "PREMARKET TRADING SIGNALS REPORT"
	disclaimer = "DISCLAIMER: This is for educational purposes only. Always do your own research."
)

// FormatText renders a run as the human-readable premarket report
func FormatText(result *contracts.Result) string {
	var b strings.Builder
	rule := strings.Repeat("=", width)

	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("%s", rule)
	line("%s%s", strings.Repeat(" ", (width-len(title))/2), title)
	line("%s", rule)
	line("Generated: %s", result.Timestamp.Format(time.RFC3339))
	line("Run ID: %s", result.RunID)
	line("Analysis Duration: %.1f seconds", result.DurationSeconds)
	line("")

	s := result.Summary
	line("SUMMARY:")
	line("  • Total Stocks Analyzed: %d", s.TotalStocksAnalyzed)
	line("  • Signals Generated: %d", s.SignalsGenerated)
	if s.SignalsGenerated > 0 {
		line("  • Average Confidence: %s", percent(s.AvgConfidence))
		line("  • Average Risk:Reward: %s:1", ratio(s.AvgRiskReward))
		line("  • Buy Signals: %d", s.BuySignals)
		line("  • Sell Signals: %d", s.SellSignals)
		line("  • Total Risk Amount: %s", money(s.TotalRiskAmount))
		line("  • Total Position Value: %s", money(s.TotalPositionValue))
	}
	if s.Reason != "" {
		line("  • Reason: %s", s.Reason)
	}
	line("")

	if len(result.Signals) == 0 {
		line("No trading signals generated.")
	} else {
		line("TOP TRADING SIGNALS:")
		line("%s", strings.Repeat("-", width))
		for i, rec := range result.Signals {
			writeSignal(line, i+1, rec)
		}
	}

	line("")
	line("%s", rule)
	line("%s", disclaimer)
	b.WriteString(rule)

	return b.String()
}

func writeSignal(line func(string, ...interface{}), n int, rec contracts.SignalRecord) {
	ps := rec.PositionSizing

	line("")
	line("%d. %s - %s Strategy", n, rec.Symbol, rec.Strategy)
	line("   Signal: %s | Confidence: %s", rec.Direction, percent(rec.Confidence))
	line("   Current Price: $%.2f | Gap: %+.1f%%", rec.CurrentPrice, rec.GapPercent)
	line("   Entry: $%.2f | Stop: $%.2f | Target: $%.2f", rec.EntryPrice, rec.StopLoss, rec.TakeProfit)
	line("   Risk:Reward: %s:1", ratio(rec.RewardRiskRatio))
	line("   Position: %d shares (%s)", ps.Shares, money(ps.PositionValue))
	line("   Risk: %s | Potential Profit: %s", money(ps.RiskAmount), money(ps.PotentialProfit))
	line("   Volume: %.1fx normal", rec.VolumeInfo.VolumeRatio)
	line("   Reasoning: %s", rec.Rationale)
}

// money formats dollars with thousands separators, e.g. $10,300.00
func money(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// ratio prints the shortest form that keeps one decimal, e.g. 2.0 or 2.35
func ratio(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
