package aaka

import (
	"bytes"
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// fakeClock is a deterministic Clock for tests, avoiding any dependence on
// wall-clock time for reproducible runs.
type fakeClock struct{ t uint64 }

func (f fakeClock) Now() (uint64, error) { return f.t, nil }

func mustSetup(t *testing.T) (*SystemParameters, *MasterSecretKey) {
	t.Helper()
	rc := NewRC(nil)
	params, msk, err := rc.Setup()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return params, msk
}

// TestSetupInvariants checks §8's Setup invariants: P_pub = s·P,
// P_pub_hat = ŝ·P, g = e(P, P2).
func TestSetupInvariants(t *testing.T) {
	params, msk := mustSetup(t)

	if got := scalarMulG1(g1Generator, msk.S); !got.Equal(&params.PPub) {
		t.Fatal("P_pub != s*P")
	}
	if got := scalarMulG1(g1Generator, msk.SHat); !got.Equal(&params.PPubHat) {
		t.Fatal("P_pub_hat != s_hat*P")
	}
	want, err := pair(g1Generator, g2Generator)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	if !params.G.Equal(&want) {
		t.Fatal("g != e(P, P2)")
	}
}

// TestRegisterUserInvariant checks §8: SID_u·P = R_u + H0(id||R_u)·P_pub.
func TestRegisterUserInvariant(t *testing.T) {
	_, msk := mustSetup(t)
	rc := NewRC(nil)
	id := []byte("alice@example.com")

	usk, err := rc.RegisterUser(msk, id)
	if err != nil {
		t.Fatalf("register user: %v", err)
	}

	lhs := scalarMulG1(g1Generator, usk.SIDu)
	h := H0(id, usk.Ru)
	rhs := addG1(usk.Ru, scalarMulG1(scalarMulG1(g1Generator, msk.S), h))
	if !lhs.Equal(&rhs) {
		t.Fatal("SID_u*P != R_u + H0(id,R_u)*P_pub")
	}
}

// TestRegisterServerInvariant checks §8: (ŝ + H1(id))·SID_ms = P2.
func TestRegisterServerInvariant(t *testing.T) {
	_, msk := mustSetup(t)
	rc := NewRC(nil)
	id := []byte("mec-server-1.edge")

	ssk, err := rc.RegisterServer(msk, id)
	if err != nil {
		t.Fatalf("register server: %v", err)
	}

	h := H1(id)
	var denom = msk.SHat
	denom.Add(&denom, &h)
	got := scalarMulG2(ssk.SIDms, denom)
	if !got.Equal(&g2Generator) {
		t.Fatal("(s_hat + H1(id))*SID_ms != P2")
	}
}

// runHonest performs one full honest protocol round and returns both sides'
// derived session keys.
func runHonest(t *testing.T, idU, idMS []byte, k int, now uint64) (SessionKey, SessionKey) {
	t.Helper()
	params, msk := mustSetup(t)
	rc := NewRC(nil)

	usk, err := rc.RegisterUser(msk, idU)
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	ssk, err := rc.RegisterServer(msk, idMS)
	if err != nil {
		t.Fatalf("register server: %v", err)
	}

	clock := fakeClock{t: now}

	req, state, err := InitiateAuthentication(usk, idU, idMS, params, clock)
	if err != nil {
		t.Fatalf("initiate authentication: %v", err)
	}

	resp, serverKey, err := ProcessUserRequest(ssk, req, idMS, params, k, clock, DefaultSkew)
	if err != nil {
		t.Fatalf("process user request: %v", err)
	}

	userKey, err := ProcessServerResponse(usk, state, resp, idMS, k, clock, DefaultSkew)
	if err != nil {
		t.Fatalf("process server response: %v", err)
	}

	return userKey, serverKey
}

// TestHonestRun covers §8's concrete scenario: identical non-empty 32-byte
// session keys on both sides.
func TestHonestRun(t *testing.T) {
	idU := []byte("alice@example.com")
	idMS := []byte("mec-server-1.edge")

	userKey, serverKey := runHonest(t, idU, idMS, 32, 1000)

	if len(userKey) != 32 || len(serverKey) != 32 {
		t.Fatalf("expected 32-byte keys, got %d/%d", len(userKey), len(serverKey))
	}
	if !bytes.Equal(userKey, serverKey) {
		t.Fatal("user and server session keys differ")
	}
}

// TestHonestRunLongerKey exercises the k=64 case noted in §8.
func TestHonestRunLongerKey(t *testing.T) {
	idU := []byte("alice@example.com")
	idMS := []byte("mec-server-1.edge")

	userKey, serverKey := runHonest(t, idU, idMS, 64, 1000)

	if len(userKey) != 64 || len(serverKey) != 64 {
		t.Fatalf("expected 64-byte keys, got %d/%d", len(userKey), len(serverKey))
	}
	if !bytes.Equal(userKey, serverKey) {
		t.Fatal("user and server session keys differ")
	}
}

// TestTamperedSigmaFailsVerification covers §8 boundary test 1.
func TestTamperedSigmaFailsVerification(t *testing.T) {
	idU := []byte("alice@example.com")
	idMS := []byte("mec-server-1.edge")

	params, msk := mustSetup(t)
	rc := NewRC(nil)
	usk, _ := rc.RegisterUser(msk, idU)
	ssk, _ := rc.RegisterServer(msk, idMS)
	clock := fakeClock{t: 1000}

	req, _, err := InitiateAuthentication(usk, idU, idMS, params, clock)
	if err != nil {
		t.Fatalf("initiate authentication: %v", err)
	}

	one := oneFr()
	req.Sigma.Add(&req.Sigma, &one)

	_, _, err = ProcessUserRequest(ssk, req, idMS, params, 32, clock, DefaultSkew)
	if !errors.Is(err, ErrSignatureVerificationFailed) {
		t.Fatalf("expected ErrSignatureVerificationFailed, got %v", err)
	}
}

// TestTamperedResponseTFailsVerification covers §8 boundary test 2.
func TestTamperedResponseTFailsVerification(t *testing.T) {
	idU := []byte("alice@example.com")
	idMS := []byte("mec-server-1.edge")

	params, msk := mustSetup(t)
	rc := NewRC(nil)
	usk, _ := rc.RegisterUser(msk, idU)
	ssk, _ := rc.RegisterServer(msk, idMS)
	clock := fakeClock{t: 1000}

	req, state, err := InitiateAuthentication(usk, idU, idMS, params, clock)
	if err != nil {
		t.Fatalf("initiate authentication: %v", err)
	}
	resp, _, err := ProcessUserRequest(ssk, req, idMS, params, 32, clock, DefaultSkew)
	if err != nil {
		t.Fatalf("process user request: %v", err)
	}

	one := oneFr()
	resp.T.Add(&resp.T, &one)

	_, err = ProcessServerResponse(usk, state, resp, idMS, 32, clock, DefaultSkew)
	if !errors.Is(err, ErrServerResponseVerificationFailed) {
		t.Fatalf("expected ErrServerResponseVerificationFailed, got %v", err)
	}
}

// TestStaleRequestTimestampRejected covers §8 boundary test 3.
func TestStaleRequestTimestampRejected(t *testing.T) {
	idU := []byte("alice@example.com")
	idMS := []byte("mec-server-1.edge")

	params, msk := mustSetup(t)
	rc := NewRC(nil)
	usk, _ := rc.RegisterUser(msk, idU)
	ssk, _ := rc.RegisterServer(msk, idMS)

	initClock := fakeClock{t: 1000}
	req, _, err := InitiateAuthentication(usk, idU, idMS, params, initClock)
	if err != nil {
		t.Fatalf("initiate authentication: %v", err)
	}

	serverClock := fakeClock{t: 1000 + 361}
	_, _, err = ProcessUserRequest(ssk, req, idMS, params, 32, serverClock, DefaultSkew)
	if !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
}

// TestFutureResponseTimestampRejected covers §8 boundary test 4.
func TestFutureResponseTimestampRejected(t *testing.T) {
	idU := []byte("alice@example.com")
	idMS := []byte("mec-server-1.edge")

	params, msk := mustSetup(t)
	rc := NewRC(nil)
	usk, _ := rc.RegisterUser(msk, idU)
	ssk, _ := rc.RegisterServer(msk, idMS)

	clock := fakeClock{t: 1000}
	req, state, err := InitiateAuthentication(usk, idU, idMS, params, clock)
	if err != nil {
		t.Fatalf("initiate authentication: %v", err)
	}
	resp, _, err := ProcessUserRequest(ssk, req, idMS, params, 32, clock, DefaultSkew)
	if err != nil {
		t.Fatalf("process user request: %v", err)
	}
	resp.Tms += 361

	userClock := fakeClock{t: 1000}
	_, err = ProcessServerResponse(usk, state, resp, idMS, 32, userClock, DefaultSkew)
	if !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
}

// TestWrongServerIDFailsVerification covers §8 boundary test 5: the user
// builds M against a different server ID than the one the request is
// actually routed to, so the server's pairing-based mask recovery yields
// garbage and the signature check fails.
func TestWrongServerIDFailsVerification(t *testing.T) {
	idU := []byte("alice@example.com")
	idMSIntended := []byte("mec-server-1.edge")
	idMSActual := []byte("mec-server-2.edge")

	params, msk := mustSetup(t)
	rc := NewRC(nil)
	usk, _ := rc.RegisterUser(msk, idU)
	ssk, err := rc.RegisterServer(msk, idMSActual)
	if err != nil {
		t.Fatalf("register server: %v", err)
	}
	clock := fakeClock{t: 1000}

	req, _, err := InitiateAuthentication(usk, idU, idMSIntended, params, clock)
	if err != nil {
		t.Fatalf("initiate authentication: %v", err)
	}

	_, _, err = ProcessUserRequest(ssk, req, idMSActual, params, 32, clock, DefaultSkew)
	if err == nil {
		t.Fatal("expected an error when server ID doesn't match what the request was built against")
	}
}

func oneFr() (one fr.Element) { one.SetOne(); return }
