package crypto

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKMS "encrypts" by reversing the bytes.
type fakeKMS struct {
	err error
}

func reverse(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[len(in)-1-i] = b
	}
	return out
}

func (f fakeKMS) Encrypt(_ context.Context, in *kms.EncryptInput, _ ...func(*kms.Options)) (*kms.EncryptOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &kms.EncryptOutput{CiphertextBlob: reverse(in.Plaintext)}, nil
}

func (f fakeKMS) Decrypt(_ context.Context, in *kms.DecryptInput, _ ...func(*kms.Options)) (*kms.DecryptOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &kms.DecryptOutput{Plaintext: reverse(in.CiphertextBlob)}, nil
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, "passphrase")
	require.NoError(t, err)

	sealed, err := c.Seal(ctx, "s3cret")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(sealed))
	assert.NotContains(t, sealed, "s3cret")

	plain, err := c.Reveal(ctx, sealed)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", plain)

	other, err := New(ctx, "another passphrase")
	require.NoError(t, err)
	_, err = other.Reveal(ctx, sealed)
	assert.ErrorContains(t, err, "decryption failed")
}

func TestKMSRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewKMS(fakeKMS{}, "arn:aws:kms:eu-west-1:111122223333:key/test")

	sealed, err := c.Seal(ctx, "s3cret")
	require.NoError(t, err)
	plain, err := c.Reveal(ctx, sealed)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", plain)

	broken := NewKMS(fakeKMS{err: errors.New("access denied")}, "arn")
	_, err = broken.Reveal(ctx, sealed)
	assert.ErrorContains(t, err, "access denied")
}

func TestReveal(t *testing.T) {
	ctx := context.Background()

	var none *Cipher
	plain, err := none.Reveal(ctx, "plain password")
	require.NoError(t, err)
	assert.Equal(t, "plain password", plain)

	_, err = none.Reveal(ctx, "ENC(AAAA)")
	assert.ErrorIs(t, err, ErrNoKey)

	empty, err := New(ctx, "  ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	c, err := New(ctx, "passphrase")
	require.NoError(t, err)
	_, err = c.Reveal(ctx, "ENC(not base64!)")
	assert.ErrorContains(t, err, "base64")
	_, err = c.Reveal(ctx, "ENC(AAAA)")
	assert.ErrorContains(t, err, "too short")
}
