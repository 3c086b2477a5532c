package httpadapter

import (
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
)

func TestApplyCORSHeaders_AnyOrigin(t *testing.T) {
	ctx := &app.RequestContext{}
	applyCORSHeaders(ctx, "")

	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")), "*"; got != want {
		t.Fatalf("allow-origin mismatch: got=%q want=%q", got, want)
	}
	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Methods")), corsAllowMethods; got != want {
		t.Fatalf("allow-methods mismatch: got=%q want=%q", got, want)
	}
	if got := string(ctx.Response.Header.Peek("Vary")); got != "" {
		t.Fatalf("expected no vary header, got %q", got)
	}
}

func TestApplyCORSHeaders_FixedOrigin(t *testing.T) {
	ctx := &app.RequestContext{}
	applyCORSHeaders(ctx, "http://localhost:5173")

	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")), "http://localhost:5173"; got != want {
		t.Fatalf("allow-origin mismatch: got=%q want=%q", got, want)
	}
	if got, want := string(ctx.Response.Header.Peek("Vary")), "Origin"; got != want {
		t.Fatalf("vary mismatch: got=%q want=%q", got, want)
	}
}
