package aaka

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
)

// SealKeyMaterial and OpenKeyMaterial seal arbitrary secret-material bytes
// (a UserSecretKey, a ServerSecretKey, or a single RC node's Share, all
// already in their canonical compressed wire form) for at-rest persistence,
// per §6's "Persisted state must round-trip the canonical compressed
// encodings". This module does not mandate a file format; these functions
// only fix how the bytes going into that file are protected.
//
// The design directly reuses the teacher's OPAQUE registration-envelope
// idiom (argon2id-stretch a low-entropy secret, derive an AES key and a
// separate MAC key, AES-CTR then MAC — never AEAD, so the format stays
// "key-committing" the way the teacher's authCiphertext is) but retargets
// Argon2id from hardening an OPRF output to hardening an operator-supplied
// passphrase, and retargets the keyed MAC from blake2b-as-PRF (the
// teacher's session-confirmation tag) to a file-integrity checksum.
const (
	keyCacheSaltLen  = 16
	keyCacheNonceLen = aes.BlockSize
	argonTime        = 3
	argonMemory      = 1 << 17 // 128 MiB
	argonThreads     = 4
	argonKeyLen      = 64 // 32 bytes AES key || 32 bytes blake2b MAC key
)

// SealedKeyFile is the on-disk representation produced by SealKeyMaterial.
type SealedKeyFile struct {
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
	Tag        []byte
}

func deriveCacheKeys(passphrase string, salt []byte) (cipherKey, macKey []byte) {
	material := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return material[:32], material[32:]
}

// SealKeyMaterial encrypts and authenticates plaintext (canonical compressed
// key bytes) under a passphrase-derived key.
func SealKeyMaterial(passphrase string, plaintext []byte) (*SealedKeyFile, error) {
	salt := make([]byte, keyCacheSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("%w: generating salt: %v", ErrCrypto, err)
	}
	nonce := make([]byte, keyCacheNonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: generating nonce: %v", ErrCrypto, err)
	}

	cipherKey, macKey := deriveCacheKeys(passphrase, salt)

	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, fmt.Errorf("%w: constructing cipher: %v", ErrCrypto, err)
	}
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCTR(block, nonce).XORKeyStream(ciphertext, plaintext)

	mac, err := blake2b.New256(macKey)
	if err != nil {
		return nil, fmt.Errorf("%w: constructing MAC: %v", ErrCrypto, err)
	}
	mac.Write(nonce)
	mac.Write(ciphertext)

	return &SealedKeyFile{Salt: salt, Nonce: nonce, Ciphertext: ciphertext, Tag: mac.Sum(nil)}, nil
}

// OpenKeyMaterial decrypts and verifies a SealedKeyFile produced by
// SealKeyMaterial, failing with ErrInvalidInput if the passphrase is wrong
// or the file has been tampered with.
func OpenKeyMaterial(passphrase string, sealed *SealedKeyFile) ([]byte, error) {
	cipherKey, macKey := deriveCacheKeys(passphrase, sealed.Salt)

	mac, err := blake2b.New256(macKey)
	if err != nil {
		return nil, fmt.Errorf("%w: constructing MAC: %v", ErrCrypto, err)
	}
	mac.Write(sealed.Nonce)
	mac.Write(sealed.Ciphertext)
	expected := mac.Sum(nil)
	if subtle.ConstantTimeCompare(expected, sealed.Tag) != 1 {
		return nil, fmt.Errorf("%w: key cache failed integrity check", ErrInvalidInput)
	}

	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, fmt.Errorf("%w: constructing cipher: %v", ErrCrypto, err)
	}
	plaintext := make([]byte, len(sealed.Ciphertext))
	cipher.NewCTR(block, sealed.Nonce).XORKeyStream(plaintext, sealed.Ciphertext)
	return plaintext, nil
}
