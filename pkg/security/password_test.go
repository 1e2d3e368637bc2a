package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/luxemarket/storefront-backend/pkg/config"
	"github.com/luxemarket/storefront-backend/pkg/security"
)

func fastConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerify(t *testing.T) {
	h := security.NewHasher(fastConfig())

	hash, err := h.Hash("very-secure-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := h.Verify("very-secure-password", hash)
	if err != nil || !ok {
		t.Fatalf("expected correct password to verify, ok=%v err=%v", ok, err)
	}
	ok, err = h.Verify("bogus-password", hash)
	if err != nil || ok {
		t.Fatalf("expected wrong password to fail, ok=%v err=%v", ok, err)
	}
	if h.NeedsRehash(hash) {
		t.Fatalf("fresh hash should not need rehash")
	}
}

func TestNeedsRehashWhenParamsChange(t *testing.T) {
	old := security.NewHasher(fastConfig())
	hash, err := old.Hash("very-secure-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	cfg := fastConfig()
	cfg.ArgonTime = 2
	current := security.NewHasher(cfg)
	if !current.NeedsRehash(hash) {
		t.Fatalf("expected rehash after time cost change")
	}
	if ok, err := current.Verify("very-secure-password", hash); err != nil || !ok {
		t.Fatalf("old hashes must still verify, ok=%v err=%v", ok, err)
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	h := security.NewHasher(fastConfig())
	if _, err := h.Verify("pw", "$bcrypt$nope"); !errors.Is(err, security.ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}

func TestCheckPolicy(t *testing.T) {
	if err := security.CheckPolicy("short"); !errors.Is(err, security.ErrWeakPassword) {
		t.Fatalf("expected weak password error")
	}
	if err := security.CheckPolicy("long-enough"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
