package kit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func tag(name string, trace *[]string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			*trace = append(*trace, name+">")
			resp, err := next(ctx, req)
			*trace = append(*trace, "<"+name)
			return resp, err
		}
	}
}

func TestChain_Order(t *testing.T) {
	var trace []string
	ep := Chain(tag("a", &trace), tag("b", &trace), tag("c", &trace))(
		func(_ context.Context, req any) (any, error) {
			trace = append(trace, "ep")
			return req, nil
		})

	resp, err := ep(context.Background(), 42)
	if err != nil || resp != 42 {
		t.Fatalf("ep = %v, %v", resp, err)
	}
	want := []string{"a>", "b>", "c>", "ep", "<c", "<b", "<a"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("trace = %v, want %v", trace, want)
	}
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	if got := GetTransport(ctx); got != "http" {
		t.Errorf("default transport = %q, want http", got)
	}
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("default request id = %q", got)
	}
	ctx = WithRequestID(WithTransport(ctx, "mcp"), "r-1")
	if GetTransport(ctx) != "mcp" || GetRequestID(ctx) != "r-1" {
		t.Errorf("got transport=%q id=%q", GetTransport(ctx), GetRequestID(ctx))
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ok := Logging(logger, "lookup")(func(context.Context, any) (any, error) { return "x", nil })
	fail := Logging(logger, "lookup")(func(context.Context, any) (any, error) { return nil, errors.New("boom") })

	ctx := WithRequestID(context.Background(), "abc")
	if resp, err := ok(ctx, nil); resp != "x" || err != nil {
		t.Fatalf("ok = %v, %v", resp, err)
	}
	if _, err := fail(ctx, nil); err == nil || err.Error() != "boom" {
		t.Fatalf("fail err = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"endpoint served", "endpoint failed", "endpoint=lookup",
		"transport=http", "request_id=abc", "error=boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output lacks %q:\n%s", want, out)
		}
	}
}
