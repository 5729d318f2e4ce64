package jwks_test

import (
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/casting-agency/internal/testutil"
	"github.com/upb/casting-agency/jwks"
)

func TestJWK_RSAPublicKey(t *testing.T) {
	key := testutil.GenerateKey(t)
	valid := testutil.JWK("abc", &key.PublicKey)

	t.Run("valid key", func(t *testing.T) {
		pub, err := valid.RSAPublicKey()
		require.NoError(t, err)
		assert.Equal(t, 0, pub.N.Cmp(key.PublicKey.N))
		assert.Equal(t, key.PublicKey.E, pub.E)
	})

	tests := []struct {
		name   string
		mutate func(j *jwks.JWK)
	}{
		{"missing n", func(j *jwks.JWK) { j.N = "" }},
		{"missing e", func(j *jwks.JWK) { j.E = "" }},
		{"invalid n encoding", func(j *jwks.JWK) { j.N = "not-valid-base64!!!" }},
		{"invalid e encoding", func(j *jwks.JWK) { j.E = "%%%" }},
		{"zero modulus", func(j *jwks.JWK) { j.N = base64.RawURLEncoding.EncodeToString([]byte{0}) }},
		{"tiny exponent", func(j *jwks.JWK) { j.E = base64.RawURLEncoding.EncodeToString(big.NewInt(1).Bytes()) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := valid
			tt.mutate(&j)
			_, err := j.RSAPublicKey()
			assert.Error(t, err)
		})
	}
}

func TestDocument_SigningKeysSkipsUnusableEntries(t *testing.T) {
	key := testutil.GenerateKey(t)
	good := testutil.JWK("good", &key.PublicKey)

	ec := good
	ec.Kid, ec.Kty = "ec", "EC"
	enc := good
	enc.Kid, enc.Use = "enc", "enc"
	broken := good
	broken.Kid, broken.N = "broken", "!!"
	noKid := good
	noKid.Kid = ""
	noUse := good
	noUse.Kid, noUse.Use = "no-use", ""

	doc := jwks.Document{Keys: []jwks.JWK{good, ec, enc, broken, noKid, noUse}}
	set := jwks.NewKeySet(doc.SigningKeys(), time.Now())

	assert.Equal(t, []string{"good", "no-use"}, set.KeyIDs())
	k, ok := set.Lookup("good")
	require.True(t, ok)
	assert.Equal(t, "RSA", k.KeyType)
	assert.Equal(t, "sig", k.Use)
	assert.Equal(t, "RS256", k.Algorithm)
}

func TestKeySet_Lookup(t *testing.T) {
	var nilSet *jwks.KeySet
	_, ok := nilSet.Lookup("abc")
	assert.False(t, ok)
	assert.Equal(t, 0, nilSet.Len())
	assert.True(t, nilSet.FetchedAt().IsZero())

	key := testutil.GenerateKey(t)
	set := jwks.NewKeySet([]jwks.SigningKey{{KeyID: "abc", PublicKey: &key.PublicKey}}, time.Now())
	_, ok = set.Lookup("")
	assert.False(t, ok, "empty kid never matches")
	_, ok = set.Lookup("abc")
	assert.True(t, ok)
}
