package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lk2023060901/querydesk-go/internal/json"
	"github.com/lk2023060901/querydesk-go/pkg/log"
	"github.com/lk2023060901/querydesk-go/pkg/metrics"
	"github.com/lk2023060901/querydesk-go/pkg/serde"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
	"github.com/lk2023060901/querydesk-go/pkg/util/retry"
)

const tracerName = "transport"

// Client 是访问配套后端服务的 HTTP 客户端。
//
// 请求体为已注册模型时使用 serde 序列化；响应以 Resource 返回，由调用方决定反序列化目标。
// 网络错误、429 与 5xx 按指数退避重试，4xx 直接返回 *APIError。并发的相同 GET 请求会被合并。
type Client struct {
	log.Binder

	base  *url.URL
	http  *http.Client
	opt   *clientOption
	group singleflight.Group
}

// NewClient 创建指向 baseURL 的 Client。
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, merr.WrapErrParameterInvalidMsg("invalid base url %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, merr.WrapErrParameterInvalidMsg("unsupported scheme %q", u.Scheme)
	}

	opt := defaultClientOption()
	for _, o := range opts {
		o(opt)
	}
	if opt.registry == nil {
		opt.registry = serde.Default
	}
	hc := opt.httpClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{base: u, http: hc, opt: opt}, nil
}

// Registry 返回解码响应所用的模型注册表。
func (c *Client) Registry() *serde.Registry {
	return c.opt.registry
}

func (c *Client) Get(ctx context.Context, path string) (*Resource, error) {
	v, err, shared := c.group.Do(http.MethodGet+" "+path, func() (any, error) {
		return c.do(ctx, http.MethodGet, path, nil)
	})
	if shared {
		log.Ctx(ctx).Debug("shared in-flight request", zap.String("path", path))
	}
	if err != nil {
		return nil, err
	}
	return v.(*Resource), nil
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Resource, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Resource, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Resource, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return strings.TrimRight(c.base.String(), "/") + "/" + strings.TrimLeft(path, "/")
	}
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String()
}

// encodeBody 将请求体编码为 JSON：[]byte 原样发送，通用 JSON 值直接编码，其余按模型序列化。
func (c *Client) encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case map[string]any, []any:
		return json.Marshal(v)
	}
	return serde.Marshal(c.opt.registry, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Resource, error) {
	ctx, span := log.NewIntentContext(ctx, tracerName, method+" "+path)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("http.path", path))

	payload, err := c.encodeBody(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode request body")
		return nil, err
	}

	var (
		res    *Resource
		apiErr *APIError
	)
	err = retry.Do(ctx, func() error {
		r, err := c.roundTrip(ctx, method, path, payload)
		if err != nil {
			if errors.As(err, &apiErr) {
				return retry.Unrecoverable(err)
			}
			return err
		}
		res = r
		return nil
	},
		retry.Attempts(c.opt.attempts),
		retry.Sleep(c.opt.sleep),
		retry.RetryErr(merr.IsRetryableErr),
	)
	if err != nil {
		if apiErr != nil {
			err = apiErr
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.Logger().Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", res.status))
	return res, nil
}

// roundTrip 执行一次 HTTP 请求并将响应体解码为通用 JSON 值。
func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) (*Resource, error) {
	if c.opt.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opt.timeout)
		defer cancel()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return nil, merr.WrapErrParameterInvalidMsg("build request %s %s: %v", method, path, err)
	}
	for k, vs := range c.opt.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.TransportLatency.WithLabelValues(method).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.TransportRequests.WithLabelValues(method, metrics.FailLabel).Inc()
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, retry.Unrecoverable(err)
		}
		return nil, merr.WrapErrTransportRequest(method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.TransportRequests.WithLabelValues(method, metrics.FailLabel).Inc()
		return nil, merr.WrapErrTransportRequest(method, path, err)
	}

	var decoded any
	if len(bytes.TrimSpace(data)) > 0 {
		decoded, err = json.UnmarshalAny(data)
		if err != nil {
			if resp.StatusCode < 300 {
				metrics.TransportRequests.WithLabelValues(method, metrics.FailLabel).Inc()
				return nil, merr.WrapErrTransportProtocol(fmt.Sprintf("malformed JSON body from %s %s", method, path), err.Error())
			}
			decoded = strings.TrimSpace(string(data))
		}
	}

	status := resp.StatusCode
	switch {
	case status == http.StatusTooManyRequests:
		metrics.TransportRequests.WithLabelValues(method, metrics.FailLabel).Inc()
		return nil, merr.WrapErrServiceRateLimit(0, fmt.Sprintf("%s %s", method, path))
	case status >= 500:
		metrics.TransportRequests.WithLabelValues(method, metrics.FailLabel).Inc()
		return nil, merr.WrapErrServiceUnavailable(fmt.Sprintf("%s %s returned %d", method, path, status))
	case status >= 400:
		metrics.TransportRequests.WithLabelValues(method, metrics.FailLabel).Inc()
		return nil, newAPIError(method, path, status, decoded)
	}
	metrics.TransportRequests.WithLabelValues(method, metrics.SuccessLabel).Inc()
	return newResource(c.opt.registry, path, status, resp.Header, decoded), nil
}
