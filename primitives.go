package aaka

import (
	"fmt"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// g1Generator and g2Generator are the fixed generators P₁∈G1, P₂∈G2 of the
// curve's two source groups. They are computed once and treated as
// immutable for the lifetime of the process.
var g1Generator bls12381.G1Affine
var g2Generator bls12381.G2Affine

func init() {
	_, _, g1Aff, g2Aff := bls12381.Generators()
	g1Generator = g1Aff
	g2Generator = g2Aff
}

// randomFr draws a uniformly random, non-zero element of Fq. A sound RNG
// makes the zero case unreachable in practice; it is nonetheless checked and
// surfaced as ErrCrypto per the spec's invariant that zero draws are never
// silently accepted.
func randomFr() (fr.Element, error) {
	var x fr.Element
	if _, err := x.SetRandom(); err != nil {
		return x, fmt.Errorf("%w: drawing random scalar: %v", ErrCrypto, err)
	}
	if x.IsZero() {
		return x, fmt.Errorf("%w: random scalar draw was zero", ErrCrypto)
	}
	return x, nil
}

// reduceModQ interprets buf as a big-endian integer and reduces it modulo
// the scalar field order q, per §4.1's "Fq reduction uses a wide byte input
// interpreted big-endian modulo q".
func reduceModQ(buf []byte) fr.Element {
	v := new(big.Int).SetBytes(buf)
	v.Mod(v, fr.Modulus())
	var z fr.Element
	z.SetBigInt(v)
	return z
}

// frFromCanonicalBytes decodes a big-endian encoding that is claimed to
// already be a canonical (< q) field element, failing otherwise. Used when
// decoding field elements that crossed a trust boundary (σ, t on the wire).
func frFromCanonicalBytes(buf []byte) (fr.Element, error) {
	v := new(big.Int).SetBytes(buf)
	if v.Cmp(fr.Modulus()) >= 0 {
		return fr.Element{}, fmt.Errorf("%w: scalar is not canonical (>= q)", ErrDeserialization)
	}
	var z fr.Element
	z.SetBigInt(v)
	return z, nil
}

// addG1 computes a+b in G1.
func addG1(a, b bls12381.G1Affine) bls12381.G1Affine {
	var aJac, bJac bls12381.G1Jac
	aJac.FromAffine(&a)
	bJac.FromAffine(&b)
	aJac.AddAssign(&bJac)
	var out bls12381.G1Affine
	out.FromJacobian(&aJac)
	return out
}

// addG2 computes a+b in G2.
func addG2(a, b bls12381.G2Affine) bls12381.G2Affine {
	var aJac, bJac bls12381.G2Jac
	aJac.FromAffine(&a)
	bJac.FromAffine(&b)
	aJac.AddAssign(&bJac)
	var out bls12381.G2Affine
	out.FromJacobian(&aJac)
	return out
}

// scalarMulG1 computes s·p in G1.
func scalarMulG1(p bls12381.G1Affine, s fr.Element) bls12381.G1Affine {
	var sInt big.Int
	s.BigInt(&sInt)
	var out bls12381.G1Affine
	out.ScalarMultiplication(&p, &sInt)
	return out
}

// scalarMulG2 computes s·p in G2.
func scalarMulG2(p bls12381.G2Affine, s fr.Element) bls12381.G2Affine {
	var sInt big.Int
	s.BigInt(&sInt)
	var out bls12381.G2Affine
	out.ScalarMultiplication(&p, &sInt)
	return out
}

// gtExp computes base^s in GT.
func gtExp(base bls12381.GT, s fr.Element) bls12381.GT {
	var sInt big.Int
	s.BigInt(&sInt)
	var out bls12381.GT
	out.Exp(base, &sInt)
	return out
}

// pair computes the bilinear pairing e(p, q).
func pair(p bls12381.G1Affine, q bls12381.G2Affine) (bls12381.GT, error) {
	gt, err := bls12381.Pair([]bls12381.G1Affine{p}, []bls12381.G2Affine{q})
	if err != nil {
		return bls12381.GT{}, fmt.Errorf("%w: computing pairing: %v", ErrCrypto, err)
	}
	return gt, nil
}

// compressG1 returns the canonical compressed affine encoding of p.
func compressG1(p bls12381.G1Affine) []byte {
	return p.Marshal()
}

// decompressG1 parses a canonical compressed G1 encoding.
func decompressG1(buf []byte) (bls12381.G1Affine, error) {
	var p bls12381.G1Affine
	if err := p.Unmarshal(buf); err != nil {
		return p, fmt.Errorf("%w: decoding G1 point: %v", ErrDeserialization, err)
	}
	return p, nil
}

// compressG2 returns the canonical compressed affine encoding of p.
func compressG2(p bls12381.G2Affine) []byte {
	return p.Marshal()
}

// decompressG2 parses a canonical compressed G2 encoding.
func decompressG2(buf []byte) (bls12381.G2Affine, error) {
	var p bls12381.G2Affine
	if err := p.Unmarshal(buf); err != nil {
		return p, fmt.Errorf("%w: decoding G2 point: %v", ErrDeserialization, err)
	}
	return p, nil
}

// compressedG1Size is the canonical compressed encoding length of a G1
// point for this curve, used by the anonymity-payload parser (§4.4 step 4).
const compressedG1Size = bls12381.SizeOfG1AffineCompressed
