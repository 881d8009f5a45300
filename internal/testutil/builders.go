package testutil

import (
	"time"

	"cache-factory/internal/cache"
)

// RequestBuilder builds cache requests for tests.
type RequestBuilder struct {
	req cache.RequestConfig
}

// NewRequest starts a request for the named cache.
func NewRequest(name string) *RequestBuilder {
	return &RequestBuilder{req: cache.RequestConfig{Name: name}}
}

func (b *RequestBuilder) WithLabel(label string) *RequestBuilder {
	b.req.Label = label
	return b
}

func (b *RequestBuilder) WithKind(kind cache.Kind) *RequestBuilder {
	b.req.Kind = kind
	return b
}

func (b *RequestBuilder) WithImplementation(impl string) *RequestBuilder {
	b.req.Implementation = impl
	return b
}

func (b *RequestBuilder) Distributed() *RequestBuilder {
	b.req.Distributed = true
	return b
}

func (b *RequestBuilder) WithMaxSize(size int) *RequestBuilder {
	b.req.MaxSize = size
	return b
}

func (b *RequestBuilder) WithLiveTime(d time.Duration) *RequestBuilder {
	b.req.LiveTime = d
	return b
}

func (b *RequestBuilder) WithMaxIdle(d time.Duration) *RequestBuilder {
	b.req.MaxIdle = d
	return b
}

func (b *RequestBuilder) Build() cache.RequestConfig {
	return b.req
}
