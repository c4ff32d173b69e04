package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSignatureService_SignVerify(t *testing.T) {
	svc := NewHMACSignatureService()

	sig := svc.Sign("secret", "hello")
	assert.Len(t, sig, 64, "hex-encoded sha256")
	assert.True(t, svc.Verify("secret", "hello", sig))
}

func TestHMACSignatureService_VerifyRejectsTamper(t *testing.T) {
	svc := NewHMACSignatureService()

	sig := svc.Sign("secret", "hello")
	assert.False(t, svc.Verify("secret", "hello!", sig))
	assert.False(t, svc.Verify("wrong", "hello", sig))
	assert.False(t, svc.Verify("secret", "hello", ""))
}

func TestHMACSignatureService_SignDeterministic(t *testing.T) {
	svc := NewHMACSignatureService()

	assert.Equal(t, svc.Sign("k", "payload"), svc.Sign("k", "payload"))
	assert.NotEqual(t, svc.Sign("k", "payload"), svc.Sign("k", "payload2"))
}

func TestHMACSignatureService_BuildEventString(t *testing.T) {
	svc := NewHMACSignatureService()

	got := svc.BuildEventString(1700000000, []byte(`{"ok":true}`))
	assert.Equal(t, `1700000000.{"ok":true}`, got)
}
