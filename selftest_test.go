// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfTests(t *testing.T) {
	for _, test := range selfTests {
		t.Run(test.name, func(t *testing.T) {
			require.NoError(t, test.run())
		})
	}

	assert.NoError(t, runSelfTests())
}

func TestExpectEqual(t *testing.T) {
	assert.NoError(t, expectEqual([]byte{1, 2}, []byte{1, 2}))
	assert.ErrorIs(t, expectEqual([]byte{1, 2}, []byte{1, 3}), StatusAlgoFail)
}
