package util

import (
	"errors"
	"fmt"
	"time"

	json "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

type Header struct {
	Key   string
	Value string
}

type Http struct {
	Url      string
	Body     interface{}
	Headers  []Header
	Timeout  time.Duration
	Response *fasthttp.Response
}

func NewHttp(url string, body interface{}, headers ...Header) *Http {
	return &Http{
		Url:     url,
		Body:    body,
		Headers: headers,
		Timeout: 10 * time.Second,
	}
}

// Post 以JSON提交，非2xx视为失败
func (h *Http) Post() error {
	request := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(request)
	response := fasthttp.AcquireResponse()

	request.Header.SetMethod(fasthttp.MethodPost)
	request.SetRequestURI(h.Url)
	request.Header.SetContentType("application/json")

	if h.Body != nil {
		jsonBytes, err := json.Marshal(h.Body)
		if err != nil {
			fasthttp.ReleaseResponse(response)
			return err
		}
		request.SetBody(jsonBytes)
	}

	for _, header := range h.Headers {
		request.Header.Set(header.Key, header.Value)
	}

	if err := fasthttp.DoTimeout(request, response, h.Timeout); err != nil {
		fasthttp.ReleaseResponse(response)
		return err
	}

	if code := response.StatusCode(); code < 200 || code >= 300 {
		body := string(response.Body())
		fasthttp.ReleaseResponse(response)
		return fmt.Errorf("POST request failed, status code: %d，body: %s", code, body)
	}

	h.Response = response
	return nil
}

func (h *Http) Result() (*gjson.Result, error) {
	defer h.Close()
	body := h.Response.Body()
	if len(body) == 0 {
		return nil, errors.New("response body is empty")
	}
	result := gjson.ParseBytes(body)
	return &result, nil
}

func (h *Http) Close() {
	if h.Response != nil {
		fasthttp.ReleaseResponse(h.Response)
		h.Response = nil
	}
}

// HttpPost 提交并解析响应，响应体为空时返回空结果
func HttpPost(uri string, v interface{}, timeout time.Duration, headers ...Header) (*gjson.Result, error) {
	h := NewHttp(uri, v, headers...)
	if timeout > 0 {
		h.Timeout = timeout
	}
	if err := h.Post(); err != nil {
		return nil, err
	}
	if len(h.Response.Body()) == 0 {
		h.Close()
		return &gjson.Result{}, nil
	}
	return h.Result()
}
