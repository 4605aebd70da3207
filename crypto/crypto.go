// Package crypto reveals secrets kept encrypted in the configuration file.
//
// A value written as ENC(<base64>) is decrypted with the configured key. A key
// that is an AWS KMS key arn selects KMS; any other key is a passphrase for
// local AES-GCM with a SHA-256 derived key. Plain values pass through.
package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

const (
	prefix    = "ENC("
	suffix    = ")"
	kmsPrefix = "arn:aws:kms:"
)

var ErrNoKey = errors.New("encrypted value found but no encryption key is configured")

// KMSAPI is the part of the KMS client the package uses.
type KMSAPI interface {
	Encrypt(ctx context.Context, in *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error)
	Decrypt(ctx context.Context, in *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// Cipher encrypts and decrypts configuration values. A nil *Cipher only
// accepts plain values.
type Cipher struct {
	kmsClient KMSAPI
	keyID     string
	localKey  []byte
}

// New builds the cipher for key. An empty key yields a nil cipher.
func New(ctx context.Context, key string) (*Cipher, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	if strings.HasPrefix(key, kmsPrefix) {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return NewKMS(kms.NewFromConfig(cfg), key), nil
	}
	hash := sha256.Sum256([]byte(key))
	return &Cipher{localKey: hash[:]}, nil
}

func NewKMS(client KMSAPI, keyID string) *Cipher {
	return &Cipher{kmsClient: client, keyID: keyID}
}

// IsEncrypted reports whether value is written as ENC(...).
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, prefix) && strings.HasSuffix(value, suffix)
}

// Reveal returns the plaintext of an ENC(...) value and any other value unchanged.
func (c *Cipher) Reveal(ctx context.Context, value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}
	if c == nil {
		return "", ErrNoKey
	}

	data, err := base64.StdEncoding.DecodeString(value[len(prefix) : len(value)-len(suffix)])
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 data: %s", err)
	}

	if c.kmsClient != nil {
		out, err := c.kmsClient.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: data})
		if err != nil {
			return "", fmt.Errorf("decryption failed: %w", err)
		}
		return string(out.Plaintext), nil
	}

	aead, err := c.aead()
	if err != nil {
		return "", err
	}
	nonceSize := aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}

// Seal encrypts plaintext into the ENC(...) form Reveal accepts.
func (c *Cipher) Seal(ctx context.Context, plaintext string) (string, error) {
	if c == nil {
		return "", ErrNoKey
	}

	var sealed []byte
	if c.kmsClient != nil {
		out, err := c.kmsClient.Encrypt(ctx, &kms.EncryptInput{
			KeyId:     aws.String(c.keyID),
			Plaintext: []byte(plaintext),
		})
		if err != nil {
			return "", fmt.Errorf("encryption failed: %w", err)
		}
		sealed = out.CiphertextBlob
	} else {
		aead, err := c.aead()
		if err != nil {
			return "", err
		}
		nonce := make([]byte, aead.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return "", fmt.Errorf("failed to generate nonce: %s", err)
		}
		sealed = aead.Seal(nonce, nonce, []byte(plaintext), nil)
	}
	return prefix + base64.StdEncoding.EncodeToString(sealed) + suffix, nil
}

func (c *Cipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.localKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
