package service

import (
	"bytes"
	"strings"
	"text/tabwriter"
)

// лимит Discord — 2000 символов, оставляем запас на ограждение кода
const maxBlock = 1900

// codeBlocks renders rows as fixed-width tables in ``` blocks, splitting
// into several messages when one would exceed the platform limit.
func codeBlocks(header []string, rows [][]string) []string {
	render := func(rows [][]string) string {
		var buf bytes.Buffer
		tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		_, _ = tw.Write([]byte(strings.Join(header, "\t") + "\n"))
		for _, r := range rows {
			_, _ = tw.Write([]byte(strings.Join(r, "\t") + "\n"))
		}
		_ = tw.Flush()
		return "```\n" + buf.String() + "```"
	}

	var (
		out   []string
		chunk [][]string
	)
	for _, r := range rows {
		next := append(chunk[:len(chunk):len(chunk)], r)
		if len(chunk) > 0 && len(render(next)) > maxBlock {
			out = append(out, render(chunk))
			chunk = [][]string{r}
			continue
		}
		chunk = next
	}
	if len(chunk) > 0 || len(out) == 0 {
		out = append(out, render(chunk))
	}
	return out
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
