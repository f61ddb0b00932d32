// Package http builds outbound HTTP clients for external APIs.
package http

import (
	"net"
	"net/http"
	"time"
)

// Option customises the client returned by NewHTTPClient.
type Option func(*clientOptions)

type clientOptions struct {
	userAgent           string
	maxIdleConnsPerHost int
}

// WithUserAgent sets the User-Agent header on every request that does not already carry one.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) { o.userAgent = ua }
}

// WithMaxIdleConnsPerHost overrides the per-host idle pool size.
func WithMaxIdleConnsPerHost(n int) Option {
	return func(o *clientOptions) { o.maxIdleConnsPerHost = n }
}

// NewHTTPClient は外部API呼び出し用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout: TCP接続タイムアウト（デフォルトより短い）
//   - MaxIdleConns: 最大アイドル接続数
//   - TLSHandshakeTimeout: HTTPSハンドシェイクの最大時間
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//
// 注意: http.DefaultClientにはタイムアウトがないため、常にこのクライアントを使用すること
func NewHTTPClient(timeout time.Duration, opts ...Option) *http.Client {
	o := clientOptions{maxIdleConnsPerHost: 10}
	for _, opt := range opts {
		opt(&o)
	}

	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: o.maxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	var rt http.RoundTripper = t
	if o.userAgent != "" {
		rt = &userAgentTransport{next: t, userAgent: o.userAgent}
	}
	return &http.Client{Timeout: timeout, Transport: rt}
}

type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (u *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.next.RoundTrip(req)
	}
	// RoundTripper must not mutate the caller's request
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", u.userAgent)
	return u.next.RoundTrip(r)
}
