package utils

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour)

	token, err := ti.GenerateJWT("u@x.com", "user")
	require.NoError(t, err)

	claims, err := ti.ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "u@x.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour)

	other, err := NewTokenIssuer("other-secret", time.Hour).GenerateJWT("u@x.com", "user")
	require.NoError(t, err)
	_, err = ti.ParseJWT(other)
	assert.Error(t, err, "wrong signature")

	expired, err := NewTokenIssuer("test-secret", -time.Hour).GenerateJWT("u@x.com", "user")
	require.NoError(t, err)
	_, err = ti.ParseJWT(expired)
	assert.Error(t, err, "expired")

	_, err = ti.ParseJWT("malformed.token.here")
	assert.Error(t, err)
}

func TestLogger_AddsRequestValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true)

	ctx := WithUserEmail(WithRequestID(context.Background(), "req-1"), "u@x.com")
	logger.InfoContext(ctx, "hello")

	out := buf.String()
	assert.True(t, strings.Contains(out, `"request_id":"req-1"`), out)
	assert.True(t, strings.Contains(out, `"user_email":"u@x.com"`), out)
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestNewEmailService_DisabledWithoutKey(t *testing.T) {
	var buf bytes.Buffer
	m := NewEmailService("", "", NewLogger(&buf, false))
	require.NoError(t, SendBadgeReceipt(context.Background(), m, "u@x.com", "Gold", 9.99, "pi_1"))
	assert.Contains(t, buf.String(), "email delivery disabled")
}
