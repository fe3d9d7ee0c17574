package aaka

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"go.uber.org/zap"
)

// RC is the Registration Center. It holds no long-lived secret state of its
// own — the master key it mints in Setup is handed to the threshold share
// layer and then discarded — and carries only an (optional) logger for
// observing registration activity without ever logging secret material.
type RC struct {
	log *zap.SugaredLogger
}

// NewRC constructs an RC. log may be nil, in which case RC operations run
// silently.
func NewRC(log *zap.SugaredLogger) *RC {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RC{log: log}
}

// Setup draws the master secret key and derives the public system
// parameters from it (§4.2). The returned MasterSecretKey must be split via
// the threshold share layer and then dropped by the caller; Setup itself
// does not persist it.
func (rc *RC) Setup() (*SystemParameters, *MasterSecretKey, error) {
	s, err := randomFr()
	if err != nil {
		return nil, nil, fmt.Errorf("setup: drawing s: %w", err)
	}
	sHat, err := randomFr()
	if err != nil {
		return nil, nil, fmt.Errorf("setup: drawing s_hat: %w", err)
	}

	pPub := scalarMulG1(g1Generator, s)
	pPubHat := scalarMulG1(g1Generator, sHat)

	g, err := pair(g1Generator, g2Generator)
	if err != nil {
		return nil, nil, fmt.Errorf("setup: computing g = e(P1, P2): %w", err)
	}

	params := &SystemParameters{
		P:       g1Generator,
		PPub:    pPub,
		PPubHat: pPubHat,
		G:       g,
	}
	msk := &MasterSecretKey{S: s, SHat: sHat}

	rc.log.Infow("rc setup complete")
	return params, msk, nil
}

// RegisterUser mints a UserSecretKey for idU under msk (§4.2).
func (rc *RC) RegisterUser(msk *MasterSecretKey, idU []byte) (*UserSecretKey, error) {
	rU, err := randomFr()
	if err != nil {
		return nil, fmt.Errorf("register user: drawing r_u: %w", err)
	}
	ruPoint := scalarMulG1(g1Generator, rU)

	h := H0(idU, ruPoint)

	var sh fr.Element
	sh.Mul(&msk.S, &h)
	var sidu fr.Element
	sidu.Add(&rU, &sh)

	rc.log.Infow("registered user", "id_len", len(idU))
	return &UserSecretKey{Ru: ruPoint, SIDu: sidu}, nil
}

// RegisterServer mints a ServerSecretKey for idMS under msk (§4.2).
func (rc *RC) RegisterServer(msk *MasterSecretKey, idMS []byte) (*ServerSecretKey, error) {
	h := H1(idMS)

	var denom fr.Element
	denom.Add(&msk.SHat, &h)
	if denom.IsZero() {
		return nil, fmt.Errorf("register server: %w: s_hat + H1(id_ms) is zero", ErrCrypto)
	}

	var inv fr.Element
	inv.Inverse(&denom)

	sidMS := scalarMulG2(g2Generator, inv)

	rc.log.Infow("registered server", "id_len", len(idMS))
	return &ServerSecretKey{SIDms: sidMS}, nil
}
