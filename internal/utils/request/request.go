package request

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Request is the shared client for outbound JSON APIs.
var Request = New(15 * time.Second)

// New returns a retrying client that honours the proxy environment variables.
func New(timeout time.Duration) *resty.Client {
	return resty.New().SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment, // 通用适配环境变量
	}).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("User-Agent", "pow-tracker")
}
