package app

import (
	"net/http"
	"reflect"
	"testing"
	"time"
)

func TestNewHTTPClient_Config(t *testing.T) {
	c := newHTTPClient(7 * time.Second)
	if c.Timeout != 7*time.Second {
		t.Fatalf("expected timeout to be applied, got %v", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected http.Transport")
	}
	if tr.MaxIdleConnsPerHost < 16 {
		t.Fatalf("expected pooled connections, got %d", tr.MaxIdleConnsPerHost)
	}
	if reflect.ValueOf(http.DefaultTransport).Pointer() == reflect.ValueOf(tr).Pointer() {
		t.Fatalf("transport should not be default")
	}
	if newHTTPClient(0).Timeout != 0 {
		t.Fatalf("zero timeout must stay unbounded")
	}
}
