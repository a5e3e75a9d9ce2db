package pubkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProgramID = "BqvmMSVZZ6fNXHegCahrgSkD6STpiBASVpvbsAgmbNxC"

func newEd25519Key(t *testing.T) PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pk, err := FromBytes(pub)
	require.NoError(t, err)
	return pk
}

func TestParse_RoundTrip(t *testing.T) {
	pk, err := Parse(testProgramID)
	require.NoError(t, err)
	assert.Equal(t, testProgramID, pk.String())
	assert.False(t, pk.IsZero())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not base58", "0OIl"},
		{"too short", "3yZe7d"},
		{"too long", testProgramID + testProgramID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("not-a-key") })
	assert.NotPanics(t, func() { MustParse(testProgramID) })
}

func TestFromBytes(t *testing.T) {
	_, err := FromBytes(make([]byte, 31))
	assert.ErrorIs(t, err, ErrInvalidLength)

	raw := make([]byte, Size)
	raw[0] = 7
	pk, err := FromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, pk.Bytes())
}

func TestPublicKey_JSON(t *testing.T) {
	pk := MustParse(testProgramID)

	out, err := json.Marshal(struct {
		Key PublicKey `json:"key"`
	}{pk})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"`+testProgramID+`"}`, string(out))

	var decoded struct {
		Key PublicKey `json:"key"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.True(t, pk.Equal(decoded.Key))

	assert.Error(t, json.Unmarshal([]byte(`{"key":"bogus"}`), &decoded))
}

func TestPublicKey_Compare(t *testing.T) {
	a := PublicKey{1}
	b := PublicKey{2}
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestIsOnCurve(t *testing.T) {
	// Every ed25519 public key is a curve point; so is the identity encoding.
	assert.True(t, IsOnCurve(newEd25519Key(t)))
	assert.True(t, IsOnCurve(PublicKey{}))
}

func TestFindProgramAddress_OffCurveAndDeterministic(t *testing.T) {
	programID := MustParse(testProgramID)

	for i := 0; i < 20; i++ {
		authority := newEd25519Key(t)
		seeds := [][]byte{[]byte("manager"), authority[:]}

		addr, bump, err := FindProgramAddress(seeds, programID)
		require.NoError(t, err)
		assert.False(t, IsOnCurve(addr), "derived address must have no private key")

		again, againBump, err := FindProgramAddress(seeds, programID)
		require.NoError(t, err)
		assert.Equal(t, addr, again)
		assert.Equal(t, bump, againBump)

		recreated, err := CreateProgramAddress([][]byte{[]byte("manager"), authority[:], {bump}}, programID)
		require.NoError(t, err)
		assert.Equal(t, addr, recreated)
	}
}

func TestFindProgramAddress_DistinctPerSeed(t *testing.T) {
	programID := MustParse(testProgramID)
	a := newEd25519Key(t)
	b := newEd25519Key(t)

	addrA, _, err := FindProgramAddress([][]byte{[]byte("manager"), a[:]}, programID)
	require.NoError(t, err)
	addrB, _, err := FindProgramAddress([][]byte{[]byte("manager"), b[:]}, programID)
	require.NoError(t, err)
	assert.NotEqual(t, addrA, addrB)

	otherProgram := newEd25519Key(t)
	addrOther, _, err := FindProgramAddress([][]byte{[]byte("manager"), a[:]}, otherProgram)
	require.NoError(t, err)
	assert.NotEqual(t, addrA, addrOther)
}

func TestCreateProgramAddress_SeedLimits(t *testing.T) {
	programID := MustParse(testProgramID)

	_, err := CreateProgramAddress([][]byte{make([]byte, MaxSeedLen+1)}, programID)
	assert.ErrorIs(t, err, ErrMaxSeedLength)

	tooMany := make([][]byte, MaxSeeds+1)
	for i := range tooMany {
		tooMany[i] = []byte{byte(i)}
	}
	_, err = CreateProgramAddress(tooMany, programID)
	assert.ErrorIs(t, err, ErrMaxSeedLength)

	_, _, err = FindProgramAddress(tooMany[:MaxSeeds], programID)
	assert.ErrorIs(t, err, ErrMaxSeedLength)
}

func TestCreateProgramAddress_WrongBumpDiffers(t *testing.T) {
	programID := MustParse(testProgramID)
	authority := newEd25519Key(t)

	addr, bump, err := FindProgramAddress([][]byte{[]byte("manager"), authority[:]}, programID)
	require.NoError(t, err)

	other, err := CreateProgramAddress([][]byte{[]byte("manager"), authority[:], {bump - 1}}, programID)
	if err == nil {
		assert.NotEqual(t, addr, other)
	} else {
		assert.ErrorIs(t, err, ErrOnCurve)
	}
}
