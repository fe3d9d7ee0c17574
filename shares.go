package aaka

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// mskByteLen is the canonical serialization length of MasterSecretKey: two
// 32-byte little-endian-limb field elements (§4.6 / §9).
const mskByteLen = 64

// Share is one of the n pieces produced by ShareLayer.Split. X is the
// evaluation point (never zero); Y holds, for every byte position of the
// serialized MasterSecretKey, the polynomial's value at X for that byte.
type Share struct {
	X byte
	Y [mskByteLen]byte
}

// ShareLayer implements the threshold secret-sharing layer (C7): splitting
// a MasterSecretKey into n Shamir shares over GF(256) with reconstruction
// threshold t, and reconstructing it from any t of them.
type ShareLayer struct {
	Threshold int
	Peers     int
}

// serializeMSK encodes msk as the concatenation of the little-endian
// byte representation of s then ŝ, 32 bytes each (§9's pinned layout: "4×u64
// little-endian limbs" of a 256-bit field element is exactly the 32-byte
// little-endian encoding of that integer).
func serializeMSK(msk *MasterSecretKey) [mskByteLen]byte {
	var out [mskByteLen]byte
	sBE := msk.S.Bytes()
	sHatBE := msk.SHat.Bytes()
	reverseInto(out[0:32], sBE[:])
	reverseInto(out[32:64], sHatBE[:])
	return out
}

// deserializeMSK is the inverse of serializeMSK. It fails if either 32-byte
// half, reinterpreted big-endian, is not a canonical (< q) field element.
func deserializeMSK(buf [mskByteLen]byte) (*MasterSecretKey, error) {
	var sBE, sHatBE [32]byte
	reverseInto(sBE[:], buf[0:32])
	reverseInto(sHatBE[:], buf[32:64])

	s, err := frFromCanonicalBytes(sBE[:])
	if err != nil {
		return nil, fmt.Errorf("%w: reconstructed s is not canonical", ErrInvalidInput)
	}
	sHat, err := frFromCanonicalBytes(sHatBE[:])
	if err != nil {
		return nil, fmt.Errorf("%w: reconstructed s_hat is not canonical", ErrInvalidInput)
	}
	return &MasterSecretKey{S: s, SHat: sHat}, nil
}

func reverseInto(dst, src []byte) {
	for i := range src {
		dst[len(src)-1-i] = src[i]
	}
}

// Split produces l.Peers shares of msk, any l.Threshold of which
// reconstruct it exactly.
func (l ShareLayer) Split(msk *MasterSecretKey) ([]Share, error) {
	if l.Threshold < 1 || l.Threshold > l.Peers || l.Peers < 1 {
		return nil, fmt.Errorf("%w: threshold %d must satisfy 1 <= t <= n (n=%d)", ErrInvalidInput, l.Threshold, l.Peers)
	}
	if l.Peers > 255 {
		return nil, fmt.Errorf("%w: GF(256) sharing supports at most 255 peers", ErrInvalidInput)
	}

	secret := serializeMSK(msk)

	shares := make([]Share, l.Peers)
	for i := 0; i < l.Peers; i++ {
		shares[i].X = byte(i + 1)
	}

	for byteIdx := 0; byteIdx < mskByteLen; byteIdx++ {
		poly, err := makeGF256Polynomial(secret[byteIdx], l.Threshold-1)
		if err != nil {
			return nil, fmt.Errorf("%w: generating share polynomial: %v", ErrCrypto, err)
		}
		for i := 0; i < l.Peers; i++ {
			shares[i].Y[byteIdx] = poly.evaluate(shares[i].X)
		}
	}
	return shares, nil
}

// Reconstruct recovers the MasterSecretKey from at least threshold valid,
// distinct-X shares. Fewer than threshold shares is a hard InvalidInput
// failure, never a best-effort partial reconstruction (§4.6).
func (l ShareLayer) Reconstruct(shares []Share) (*MasterSecretKey, error) {
	unique := dedupeShares(shares)
	if len(unique) < l.Threshold {
		return nil, fmt.Errorf("%w: need %d shares, got %d distinct", ErrInvalidInput, l.Threshold, len(unique))
	}
	unique = unique[:l.Threshold]

	xs := make([]byte, len(unique))
	for i, s := range unique {
		if s.X == 0 {
			return nil, fmt.Errorf("%w: share has invalid x-coordinate 0", ErrInvalidInput)
		}
		xs[i] = s.X
	}

	var secret [mskByteLen]byte
	for byteIdx := 0; byteIdx < mskByteLen; byteIdx++ {
		ys := make([]byte, len(unique))
		for i, s := range unique {
			ys[i] = s.Y[byteIdx]
		}
		secret[byteIdx] = gf256Interpolate(xs, ys, 0)
	}

	return deserializeMSK(secret)
}

func dedupeShares(shares []Share) []Share {
	seen := make(map[byte]bool, len(shares))
	out := make([]Share, 0, len(shares))
	for _, s := range shares {
		if seen[s.X] {
			continue
		}
		seen[s.X] = true
		out = append(out, s)
	}
	return out
}

// --- GF(256) arithmetic --------------------------------------------------
//
// Standard Shamir-over-a-byte-field arithmetic: GF(256) built from the AES
// reduction polynomial x^8+x^4+x^3+x+1 (0x11b), with exp/log tables built
// from generator 3. This is hand-rolled rather than pulled from a
// third-party module: none of the retrieved example repos ship a
// byte-oriented Shamir implementation (the pack's secret-sharing code —
// tuneinsight-lattigo's drlwe/dbfv thresholdizers, the gnark-crypto
// fr/polynomial-based sharing referenced by the eigenx-kms-go example —
// all split field elements of a *different* field, not raw bytes, and so
// cannot produce the exact 64-byte GF(256) layout §4.6/§9 mandate.

var gf256Exp [510]byte
var gf256Log [256]byte

func init() {
	x := byte(1)
	for i := 0; i < 255; i++ {
		gf256Exp[i] = x
		gf256Log[x] = byte(i)
		x = gf256Double(x) ^ x // x·3 = x·2 + x
	}
	for i := 255; i < 510; i++ {
		gf256Exp[i] = gf256Exp[i-255]
	}
}

func gf256Double(x byte) byte {
	r := x << 1
	if x&0x80 != 0 {
		r ^= 0x1b
	}
	return r
}

func gf256Mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gf256Exp[int(gf256Log[a])+int(gf256Log[b])]
}

func gf256Div(a, b byte) byte {
	if a == 0 {
		return 0
	}
	return gf256Exp[(int(gf256Log[a])-int(gf256Log[b])+255)%255]
}

type gf256Polynomial struct {
	coefficients []byte // coefficients[0] is the constant term (the secret byte)
}

func makeGF256Polynomial(secret byte, degree int) (gf256Polynomial, error) {
	p := gf256Polynomial{coefficients: make([]byte, degree+1)}
	p.coefficients[0] = secret
	if degree > 0 {
		if _, err := io.ReadFull(rand.Reader, p.coefficients[1:]); err != nil {
			return p, err
		}
	}
	return p, nil
}

// evaluate computes p(x) using Horner's method in GF(256).
func (p gf256Polynomial) evaluate(x byte) byte {
	if x == 0 {
		return p.coefficients[0]
	}
	result := p.coefficients[len(p.coefficients)-1]
	for i := len(p.coefficients) - 2; i >= 0; i-- {
		result = gf256Mul(result, x) ^ p.coefficients[i]
	}
	return result
}

// gf256Interpolate evaluates, at point x, the unique degree-(len(xs)-1)
// polynomial passing through (xs[i], ys[i]) via Lagrange interpolation in
// GF(256). Addition and subtraction in GF(256) are both XOR.
func gf256Interpolate(xs, ys []byte, x byte) byte {
	var result byte
	for i := range xs {
		basis := byte(1)
		for j := range xs {
			if i == j {
				continue
			}
			num := xs[j] ^ x
			denom := xs[i] ^ xs[j]
			basis = gf256Mul(basis, gf256Div(num, denom))
		}
		result ^= gf256Mul(basis, ys[i])
	}
	return result
}

// --- RC cluster share-distribution protocol (§4.6 "Distribution protocol") ---
//
// The initiating RC node pushes n-1 shares to its peers over the external
// transport. ShareEnvelope authenticates a share in transit with an
// HMAC-SHA3-256 tag keyed by a per-peer key derived from a pre-shared
// transport secret via HKDF — reusing the teacher's deriveHKDFKeys idiom
// (golang.org/x/crypto/hkdf + SHA3) for a new purpose: share integrity
// rather than OPAQUE envelope keys.
type ShareEnvelope struct {
	Share Share
	Tag   []byte
}

func shareMACKey(peerSecret []byte) ([]byte, error) {
	kdf := hkdf.New(sha3.New256, peerSecret, nil, []byte("aaka-share-distribution-mac"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("%w: deriving share MAC key: %v", ErrCrypto, err)
	}
	return key, nil
}

// SealShare authenticates share for transport to a peer RC node, keyed by
// the pairwise transport secret shared with that peer.
func SealShare(share Share, peerSecret []byte) (*ShareEnvelope, error) {
	key, err := shareMACKey(peerSecret)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha3.New256, key)
	mac.Write([]byte{share.X})
	mac.Write(share.Y[:])
	return &ShareEnvelope{Share: share, Tag: mac.Sum(nil)}, nil
}

// OpenShare verifies env's tag against the pairwise transport secret shared
// with the sending peer and returns the share on success.
func OpenShare(env *ShareEnvelope, peerSecret []byte) (*Share, error) {
	key, err := shareMACKey(peerSecret)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha3.New256, key)
	mac.Write([]byte{env.Share.X})
	mac.Write(env.Share.Y[:])
	expected := mac.Sum(nil)
	if subtle.ConstantTimeCompare(expected, env.Tag) != 1 {
		return nil, fmt.Errorf("%w: share envelope failed authentication", ErrInvalidInput)
	}
	return &env.Share, nil
}
