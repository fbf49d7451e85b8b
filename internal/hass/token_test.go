package hass

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return token
}

func TestIntrospectTokenExpired(t *testing.T) {
	var buf bytes.Buffer
	token := signedToken(t, jwt.MapClaims{
		"iss": "abc123",
		"exp": jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	IntrospectToken(token, captureLogger(&buf))

	if !strings.Contains(buf.String(), "expired") {
		t.Errorf("log output %q missing expiry warning", buf.String())
	}
}

func TestIntrospectTokenExpiringSoon(t *testing.T) {
	var buf bytes.Buffer
	token := signedToken(t, jwt.MapClaims{
		"exp": jwt.NewNumericDate(time.Now().Add(10 * 24 * time.Hour)),
	})

	IntrospectToken(token, captureLogger(&buf))

	if !strings.Contains(buf.String(), "expires soon") {
		t.Errorf("log output %q missing expiring-soon warning", buf.String())
	}
}

func TestIntrospectTokenHealthy(t *testing.T) {
	var buf bytes.Buffer
	token := signedToken(t, jwt.MapClaims{
		"exp": jwt.NewNumericDate(time.Now().Add(8 * 365 * 24 * time.Hour)),
	})

	IntrospectToken(token, captureLogger(&buf))

	out := buf.String()
	if strings.Contains(out, "level=WARN") {
		t.Errorf("healthy token produced a warning: %q", out)
	}
	if !strings.Contains(out, "expiry checked") {
		t.Errorf("log output %q missing debug confirmation", out)
	}
}

func TestIntrospectTokenOpaque(t *testing.T) {
	var buf bytes.Buffer

	IntrospectToken("llat-not-a-jwt-credential", captureLogger(&buf))

	out := buf.String()
	if strings.Contains(out, "level=WARN") {
		t.Errorf("opaque token produced a warning: %q", out)
	}
	if !strings.Contains(out, "skipping expiry check") {
		t.Errorf("log output %q missing debug note", out)
	}
}

func TestIntrospectTokenNoExpiry(t *testing.T) {
	var buf bytes.Buffer
	token := signedToken(t, jwt.MapClaims{"iss": "abc123"})

	IntrospectToken(token, captureLogger(&buf))

	if !strings.Contains(buf.String(), "no expiry claim") {
		t.Errorf("log output %q missing no-expiry note", buf.String())
	}
}
