// Package render formats analysis results as aligned text tables for the CLI.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/liqlens/liqlens/internal/domain"
	"github.com/liqlens/liqlens/internal/platform/newsapi"
	"github.com/liqlens/liqlens/internal/service"
)

// Report writes a full single-market analysis to w.
func Report(w io.Writer, report service.Report) error {
	fmt.Fprintf(w, "%s\n", report.Market.Question)
	fmt.Fprintf(w, "market %s  slug %s\n\n", report.Market.ID, report.Market.Slug)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if report.HasQuote {
		fmt.Fprintf(tw, "spread\t%d c\n", report.Spread)
		fmt.Fprintf(tw, "midpoint\t%.1f c (%s)\n", report.Midpoint, report.Market.Outcomes[0])
	} else {
		fmt.Fprintf(tw, "quote\tnone (one-sided or empty book)\n")
	}
	fmt.Fprintf(tw, "score\t%d / 100 (%s)\n", report.Score.Value, report.Score.Grade)
	fmt.Fprintf(tw, "components\tspread %.1f  depth %.1f  volume %.1f  oi %.1f\n",
		report.Score.SpreadScore, report.Score.DepthScore,
		report.Score.VolumeScore, report.Score.OpenInterestScore)
	fmt.Fprintf(tw, "volume 24h\t%d\n", report.Market.Volume24h)
	fmt.Fprintf(tw, "open interest\t%d\n", report.Market.OpenInterest)
	if err := tw.Flush(); err != nil {
		return err
	}

	for i := range report.Outcomes {
		fmt.Fprintln(w)
		if err := outcomeSection(w, report.Market, report.Outcomes[i]); err != nil {
			return err
		}
	}
	return nil
}

func outcomeSection(w io.Writer, market domain.Market, oc service.OutcomeReport) error {
	name := market.Outcomes[0]
	if oc.Outcome == domain.OutcomeNo {
		name = market.Outcomes[1]
	}
	fmt.Fprintf(w, "%s (%s)\n", name, oc.Outcome)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  size\tbuy avg\tbuy slip\tsell avg\tsell slip\n")
	for i := range oc.Buys {
		buy, sell := oc.Buys[i], oc.Sells[i]
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\n",
			buy.RequestedQuantity,
			fillCell(buy), slipCell(buy),
			fillCell(sell), slipCell(sell),
		)
	}
	fmt.Fprintf(tw, "  max safe size\tbuy %d\t\tsell %d\t\n", oc.MaxSafeBuy, oc.MaxSafeSell)
	return tw.Flush()
}

func fillCell(est domain.SlippageEstimate) string {
	if !est.Filled() {
		return "-"
	}
	if !est.FullyFilled() {
		return fmt.Sprintf("%.2f c (%d/%d)", est.AvgFillPrice, est.FillableQuantity, est.RequestedQuantity)
	}
	return fmt.Sprintf("%.2f c", est.AvgFillPrice)
}

func slipCell(est domain.SlippageEstimate) string {
	if !est.Filled() {
		return "-"
	}
	return fmt.Sprintf("%.2f c", est.SlippageCents)
}

// ScanTable writes a ranked multi-market scan to w.
func ScanTable(w io.Writer, rows []service.ScanRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "score\tgrade\tspread\tvolume 24h\tmarket\n")
	for _, row := range rows {
		if row.Err != nil {
			fmt.Fprintf(tw, "-\t-\t-\t%d\t%s (error: %v)\n",
				row.Market.Volume24h, marketLabel(row.Market), row.Err)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%d c\t%d\t%s\n",
			row.Score.Value, row.Score.Grade, row.Spread,
			row.Market.Volume24h, marketLabel(row.Market))
	}
	return tw.Flush()
}

// PortfolioTable writes a wallet exit-liquidity review to w.
func PortfolioTable(w io.Writer, reports []service.PositionReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "outcome\tsize\tavg cost\texit avg\texit slip\tmax safe exit\tmarket\n")
	for _, r := range reports {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t%d\t%.2f c\t-\t-\t-\t%s (error: %v)\n",
				r.Position.Outcome, r.Position.Quantity, r.Position.AvgPrice,
				marketLabel(r.Market), r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f c\t%s\t%s\t%d\t%s\n",
			r.Position.Outcome, r.Position.Quantity, r.Position.AvgPrice,
			fillCell(r.Exit), slipCell(r.Exit), r.MaxSafeExit,
			marketLabel(r.Market))
	}
	return tw.Flush()
}

// Headlines writes recent news articles related to an analyzed market.
func Headlines(w io.Writer, articles []newsapi.Article) error {
	if len(articles) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\nrecent headlines")
	for _, a := range articles {
		date := ""
		if !a.PublishedAt.IsZero() {
			date = a.PublishedAt.Format("2006-01-02") + "  "
		}
		fmt.Fprintf(w, "  %s%s (%s)\n    %s\n", date, a.Title, a.Source, a.URL)
	}
	return nil
}

func marketLabel(m domain.Market) string {
	if m.Slug != "" {
		return m.Slug
	}
	if m.ID != "" {
		return m.ID
	}
	return strings.TrimSpace(m.Question)
}
