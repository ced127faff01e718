package core

// Signer signs transaction hashes on behalf of one account.
type Signer interface {
	Address() string
	Sign(hash []byte) ([]string, error)
	// Zero wipes the key material held by the signer.
	Zero()
}

type KeyScheme interface {
	GenerateKey() ([]byte, error)
	PublicKey(privateKey []byte) (string, error)
	NewSigner(address string, privateKey []byte) (Signer, error)
}
