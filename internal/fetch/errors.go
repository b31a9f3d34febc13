package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// NetworkError 表示传输层失败（连接/读取/超时），可重试。
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error for %s: %v", e.URL, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout 报告失败是否由超时引起。
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// HTTPStatusError 表示非 2xx 响应，可重试。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %s for %s", e.Status, e.URL)
}

// FormatError 表示响应体不是 JSON 数组或条目结构不符；重试无法修复，不重试。
type FormatError struct {
	URL    string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected response from %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("unexpected response from %s: %s", e.URL, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// FetchError 为重试耗尽后的聚合失败，携带最后一次的底层原因。
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable 仅对网络错误与 HTTP 状态错误返回 true。
func Retryable(err error) bool {
	var ne *NetworkError
	var se *HTTPStatusError
	return errors.As(err, &ne) || errors.As(err, &se)
}
