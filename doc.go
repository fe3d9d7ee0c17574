// Package aaka implements the cryptographic core of an Identity-Based
// Cryptography Anonymous Authenticated Key Agreement (IBC-AAKA) scheme for
// mobile-edge-computing deployments, built on a BLS12-381 bilinear pairing.
//
// Three principals participate: a Registration Center (RC) holding a master
// secret split across a cluster via Shamir secret sharing, a set of MEC
// Servers (MS) that authenticate users, and Mobile Users (U) that negotiate a
// session key with a chosen server. A successful exchange delivers mutual
// authentication, anonymity of the user's identity toward a network
// eavesdropper, forward secrecy, and a shared symmetric session key.
//
// aaka is a pure cryptographic library: every operation is synchronous,
// takes its inputs explicitly, and returns a result or an error. It does not
// open sockets, read configuration files, or retry failed calls. The
// transport, persistence, and CLI surface a deployment builds on top of it
// are deliberately out of scope.
package aaka
