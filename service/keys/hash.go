package keys

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/pandodao/gasless-wallet/core"
	"golang.org/x/crypto/sha3"
)

var (
	mask250 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 250), uint256.NewInt(1))

	// "STARKNET_CONTRACT_ADDRESS" as a felt
	contractAddressPrefix = new(uint256.Int).SetBytes([]byte("STARKNET_CONTRACT_ADDRESS"))
)

// Keccak250 is keccak256 truncated to the low 250 bits, so the result is
// always a valid felt.
func Keccak250(data []byte) *uint256.Int {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	v := new(uint256.Int).SetBytes(h.Sum(nil))
	return v.And(v, mask250)
}

// Selector returns the entry point selector of a contract function name.
func Selector(name string) string {
	return Keccak250([]byte(name)).Hex()
}

// HashFelts hashes a list of felts word by word.
func HashFelts(words ...*uint256.Int) *uint256.Int {
	buf := make([]byte, 0, 32*len(words))
	for _, w := range words {
		b := w.Bytes32()
		buf = append(buf, b[:]...)
	}

	return Keccak250(buf)
}

// PublicKeyFelt maps a public key of any length to the felt that identifies
// the account owner on chain.
func PublicKeyFelt(publicKey string) (string, error) {
	s := publicKey
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}

	b, err := hex.DecodeString(s)
	if err != nil || len(b) == 0 {
		return "", fmt.Errorf("%w: public key", core.ErrInvalidInput)
	}

	return Keccak250(b).Hex(), nil
}

// ContractAddress derives the counterfactual address of an account deployed
// from classHash with the given salt and constructor calldata by deployer
// (0x0 for deploy-account style transactions).
func ContractAddress(deployer, salt, classHash string, calldata []string) (string, error) {
	words := make([]*uint256.Int, 0, 5)
	for _, s := range []string{deployer, salt, classHash} {
		v, err := core.ParseFelt(s)
		if err != nil {
			return "", err
		}

		words = append(words, v)
	}

	args := make([]*uint256.Int, len(calldata))
	for i, s := range calldata {
		v, err := core.ParseFelt(s)
		if err != nil {
			return "", err
		}

		args[i] = v
	}

	words = append([]*uint256.Int{contractAddressPrefix}, words...)
	words = append(words, HashFelts(args...))
	return HashFelts(words...).Hex(), nil
}

// AccountConstructor builds the constructor calldata of the account class:
// owner signer enum variant 0 with the owner felt, then guardian None.
func AccountConstructor(ownerFelt string) []string {
	return []string{"0x0", ownerFelt, "0x1"}
}
