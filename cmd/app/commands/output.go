package commands

import (
	"cardiocheck/pkg/utils"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

func userMessage(err error) string {
	if _, ok := utils.AsAppError(err); ok {
		return utils.UserMessage(err)
	}
	return err.Error()
}

func money(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, strings.ToUpper(currency))
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

func table(w io.Writer, header string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}
