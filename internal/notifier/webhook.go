package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Webhook 把告警以 JSON 形式 POST 到任意回调地址，
// 方便接企业微信、飞书、自建面板之类的下游。
type Webhook struct {
	URL    string
	Source string // 标识字段，收端用来区分多个实例
	Client *http.Client
}

func NewWebhook(url, source string) *Webhook {
	return &Webhook{
		URL:    url,
		Source: source,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, text string) error {
	if w.URL == "" {
		return fmt.Errorf("webhook 未配置 URL")
	}
	payload := map[string]any{
		"source": w.Source,
		"text":   text,
		"ts":     time.Now().Unix(),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook status=%d", resp.StatusCode)
	}
	return nil
}
