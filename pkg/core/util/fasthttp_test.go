package util

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func startServer(t *testing.T, handler fasthttp.RequestHandler) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &fasthttp.Server{Handler: handler}
	go srv.Serve(ln)
	t.Cleanup(func() { _ = srv.Shutdown() })
	return "http://" + ln.Addr().String()
}

func TestHttpPost(t *testing.T) {
	var gotBody string
	var gotHeader string
	url := startServer(t, func(ctx *fasthttp.RequestCtx) {
		gotBody = string(ctx.PostBody())
		gotHeader = string(ctx.Request.Header.Peek("X-Token"))
		ctx.SetStatusCode(200)
		ctx.SetBodyString(`{"ok":true,"id":"m-1"}`)
	})

	result, err := HttpPost(url, map[string]string{"text": "告警"}, time.Second, Header{Key: "X-Token", Value: "t"})
	require.NoError(t, err)
	assert.True(t, result.Get("ok").Bool())
	assert.Equal(t, "m-1", result.Get("id").String())
	assert.JSONEq(t, `{"text":"告警"}`, gotBody)
	assert.Equal(t, "t", gotHeader)
}

func TestHttpPostNon2xx(t *testing.T) {
	url := startServer(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(500)
		ctx.SetBodyString("down")
	})

	_, err := HttpPost(url, nil, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestHttpPostEmptyBody(t *testing.T) {
	url := startServer(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(204)
	})

	result, err := HttpPost(url, map[string]int{"a": 1}, time.Second)
	require.NoError(t, err)
	assert.False(t, result.Exists())
}
