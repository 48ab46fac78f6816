// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func fromHex(t *testing.T, s string) []byte {
	t.Helper()

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\t", "")
	s = strings.ReplaceAll(s, "\r", "")
	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

// derivedSessionKeys injects the session keys RFC test vectors specify
// directly into a transform, bypassing the key derivation.
type derivedSessionKeys struct {
	srtpSessionKey      []byte
	srtpSessionSalt     []byte
	srtpSessionAuthKey  []byte
	srtcpSessionKey     []byte
	srtcpSessionSalt    []byte
	srtcpSessionAuthKey []byte
}

func newTransformsWithDerivedKeys(t *testing.T, policy CryptoPolicy, keys derivedSessionKeys) (rtp, rtcp transform) {
	t.Helper()

	rtp, err := newTransform(policy, sessionKeys{
		cipherKey: keys.srtpSessionKey,
		authKey:   keys.srtpSessionAuthKey,
		salt:      keys.srtpSessionSalt,
	})
	require.NoError(t, err)

	rtcp, err = newTransform(policy, sessionKeys{
		cipherKey: keys.srtcpSessionKey,
		authKey:   keys.srtcpSessionAuthKey,
		salt:      keys.srtcpSessionSalt,
	})
	require.NoError(t, err)

	return rtp, rtcp
}

// testMasterKey returns a master key of n bytes holding 0, 1, 2 and so on.
func testMasterKey(n int) []byte {
	key := make([]byte, n)
	for i := range key {
		key[i] = byte(i)
	}

	return key
}
