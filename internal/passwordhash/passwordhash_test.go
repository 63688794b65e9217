package passwordhash

import "testing"

func TestHashAndVerify_RoundTrip(t *testing.T) {
	hash, err := Hash("pw123456")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := Verify("pw123456", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected correct password to verify")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	hash, err := Hash("pw123456")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatalf("expected wrong password to fail verification")
	}
}

func TestHash_UniqueSaltPerCall(t *testing.T) {
	a, err := Hash("pw123456")
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	b, err := Hash("pw123456")
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct hashes for the same password due to random salts")
	}
}
