package notifier

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Severity 表示告警级别，级别不够的事件会被分发器直接丢弃。
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityCritical:
		return "critical"
	default:
		return "info"
	}
}

// ParseSeverity 解析配置里的级别字符串，未知值按 info 处理。
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warn", "warning":
		return SeverityWarn
	case "critical", "crit":
		return SeverityCritical
	default:
		return SeverityInfo
	}
}

// Event 是一条待分发的告警。Metadata 参与去重指纹，
// 因此只放决定"这是不是同一件事"的字段，不放时间戳之类的易变值。
type Event struct {
	Kind     string
	Severity Severity
	Symbol   string
	Title    string
	Body     string
	Metadata map[string]string
	At       time.Time
}

// HashKey 返回事件的去重指纹。Metadata 按 key 排序后参与哈希，
// 保证同一事件不管 map 遍历顺序如何都得到同一指纹。
func (e Event) HashKey() string {
	h := sha256.New()
	h.Write([]byte(e.Kind))
	h.Write([]byte{0})
	h.Write([]byte(e.Symbol))
	h.Write([]byte{0})
	h.Write([]byte(e.Title))
	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(e.Metadata[k]))
	}
	return hex.EncodeToString(h.Sum(nil))
}
