package keys

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pandodao/gasless-wallet/core"
)

func TestGenerateAndSign(t *testing.T) {
	s := New()

	priv, err := s.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	if len(priv) != 32 {
		t.Fatalf("private key length = %d, want 32", len(priv))
	}

	pub, err := s.PublicKey(priv)
	if err != nil {
		t.Fatal(err)
	}

	if len(pub) != 2+66 {
		t.Errorf("public key %q is not a compressed key", pub)
	}

	signer, err := s.NewSigner("0x0ABC", priv)
	if err != nil {
		t.Fatal(err)
	}

	if signer.Address() != "0xabc" {
		t.Errorf("Address = %q, want 0xabc", signer.Address())
	}

	hash := bytes.Repeat([]byte{7}, 32)
	sig, err := signer.Sign(hash)
	if err != nil {
		t.Fatal(err)
	}

	if len(sig) != 2 {
		t.Fatalf("signature words = %d, want 2", len(sig))
	}

	r, _ := hex.DecodeString(sig[0][2:])
	sv, _ := hex.DecodeString(sig[1][2:])

	var rs, ss secp256k1.ModNScalar
	rs.SetByteSlice(r)
	ss.SetByteSlice(sv)

	pubBytes, _ := hex.DecodeString(pub[2:])
	pubKey, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		t.Fatal(err)
	}

	if !ecdsa.NewSignature(&rs, &ss).Verify(hash, pubKey) {
		t.Error("signature does not verify against the derived public key")
	}
}

func TestNewSignerRejects(t *testing.T) {
	s := New()
	priv, _ := s.GenerateKey()

	if _, err := s.NewSigner("bob", priv); err == nil {
		t.Error("expected error for bad address")
	}

	if _, err := s.NewSigner("0x1", priv[:10]); err == nil {
		t.Error("expected error for short key")
	}

	signer, err := s.NewSigner("0x1", priv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := signer.Sign([]byte("short")); err == nil {
		t.Error("expected error for short hash")
	}
}

func TestParsePrivateKey(t *testing.T) {
	key, err := ParsePrivateKey("0xabc")
	if err != nil {
		t.Fatal(err)
	}

	if len(key) != 32 || key[30] != 0x0a || key[31] != 0xbc {
		t.Errorf("ParsePrivateKey = %x", key)
	}

	if _, err := ParsePrivateKey("0xnothex"); err == nil {
		t.Error("expected error")
	}
}

func TestSelector(t *testing.T) {
	// well known selector of "transfer"
	want := "0x83afd3f4caedc6eebf44246fe54e38c95e3179a5ec9ea81740eca5b482d12e"
	if got := Selector("transfer"); got != want {
		t.Errorf("Selector(transfer) = %s, want %s", got, want)
	}

	if !core.IsAddress(Selector("balanceOf")) {
		t.Error("selector is not a felt")
	}
}

func TestContractAddress(t *testing.T) {
	pub := "0x02" + hex.EncodeToString(bytes.Repeat([]byte{1}, 32))
	owner, err := PublicKeyFelt(pub)
	if err != nil {
		t.Fatal(err)
	}

	calldata := AccountConstructor(owner)
	a1, err := ContractAddress("0x0", owner, "0x1234", calldata)
	if err != nil {
		t.Fatal(err)
	}

	a2, _ := ContractAddress("0x0", owner, "0x1234", calldata)
	if a1 != a2 {
		t.Errorf("address not deterministic: %s != %s", a1, a2)
	}

	a3, _ := ContractAddress("0x0", owner, "0x1235", calldata)
	if a1 == a3 {
		t.Error("class hash does not affect address")
	}

	if !core.IsAddress(a1) {
		t.Errorf("%s is not a valid address", a1)
	}

	if _, err := ContractAddress("0x0", "nope", "0x1", nil); err == nil {
		t.Error("expected error for invalid salt")
	}
}
