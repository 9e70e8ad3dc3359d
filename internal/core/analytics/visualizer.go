package analytics

import (
	"fmt"
	"time"

	"github.com/Nzyazin/bank/internal/core/account"
	"github.com/shopspring/decimal"
)

const (
	ColorCredit   = "green"
	ColorDebit    = "red"
	ColorInterest = "blue"

	defaultTimeFormat = "02.01.2006 15:04"
)

// Point is one balance sample, annotated with the operation that produced it.
type Point struct {
	Time      time.Time             `json:"time"`
	TimeLabel string                `json:"time_label"`
	Balance   decimal.Decimal       `json:"balance"`
	Kind      account.OperationKind `json:"kind"`
	Label     string                `json:"label"`
	Color     string                `json:"color"`
}

// Chart describes a balance-over-time line chart. Rendering is left to the
// consumer.
type Chart struct {
	Title  string  `json:"title"`
	XLabel string  `json:"x_label"`
	YLabel string  `json:"y_label"`
	Points []Point `json:"points"`
}

type AccountVisualizer struct {
	TimeFormat string
}

func NewAccountVisualizer() *AccountVisualizer {
	return &AccountVisualizer{TimeFormat: defaultTimeFormat}
}

func (v AccountVisualizer) BalanceChart(src Source) (Chart, error) {
	snap := src.Snapshot()
	h := snap.History()
	if h.Len() == 0 {
		return Chart{}, ErrNoData
	}

	format := v.TimeFormat
	if format == "" {
		format = defaultTimeFormat
	}

	info := snap.Info()
	title := "Balance history " + info.Number
	if info.Holder != "" {
		title += "\nHolder: " + info.Holder
	}

	chart := Chart{
		Title:  title,
		XLabel: "Operation time",
		YLabel: "Balance",
		Points: make([]Point, 0, h.Len()),
	}
	for op := range h.Entries() {
		chart.Points = append(chart.Points, Point{
			Time:      op.Timestamp,
			TimeLabel: op.Timestamp.Format(format),
			Balance:   op.ResultingBalance,
			Kind:      op.Kind,
			Label:     annotation(op),
			Color:     color(op.Kind),
		})
	}
	return chart, nil
}

func annotation(op account.Operation) string {
	sign := "+"
	if !op.Kind.IsCredit() {
		sign = "-"
	}
	return fmt.Sprintf("%s\n%s%s", op.Kind, sign, op.Amount.String())
}

func color(kind account.OperationKind) string {
	switch {
	case kind == account.OperationInterest:
		return ColorInterest
	case kind.IsCredit():
		return ColorCredit
	default:
		return ColorDebit
	}
}
