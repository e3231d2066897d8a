package notifier

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

const maxMessageLen = 3800

var severityIcons = map[Severity]string{
	SeverityInfo:     "ℹ️",
	SeverityWarn:     "⚠️",
	SeverityCritical: "🚨",
}

// Render 生成统一格式的告警文本，所有通道共用同一份正文。
func Render(ev Event) string {
	var b strings.Builder
	icon := severityIcons[ev.Severity]
	header := strings.TrimSpace(icon + " " + ev.Title)
	if header != "" {
		b.WriteString(header + "\n\n")
	}
	if ev.Symbol != "" {
		b.WriteString("标的：" + ev.Symbol + "\n")
	}
	if body := strings.TrimSpace(ev.Body); body != "" {
		b.WriteString(sanitize(body))
		b.WriteString("\n")
	}
	if len(ev.Metadata) > 0 {
		keys := make([]string, 0, len(ev.Metadata))
		for k := range ev.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("```\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, sanitize(ev.Metadata[k]))
		}
		b.WriteString("```\n")
	}
	if !ev.At.IsZero() {
		b.WriteString("时间：" + ev.At.Format("2006-01-02 15:04:05 MST"))
	}
	text := strings.TrimSpace(b.String())
	if len(text) > maxMessageLen {
		// 标题和标签常是中文，截断点必须落在 rune 边界上
		cut := maxMessageLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return text
}

func sanitize(s string) string {
	return strings.ReplaceAll(s, "```", "'''")
}
