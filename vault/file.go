package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters. N=2^15 (~32MB) keeps derivation interactive on the
	// mobile-class devices this fallback targets while staying expensive
	// to brute-force.
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// fileFormat is the on-disk layout: the whole entry map serialized to JSON
// and sealed with AES-GCM under a scrypt-derived key.
type fileFormat struct {
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"ciphertext"`
}

// File is an encrypted-file Vault, the documented fallback for hosts
// without a platform keystore. Every operation opens, decrypts, mutates and
// rewrites the file under a single lock.
type File struct {
	mu         sync.Mutex
	path       string
	passphrase []byte
}

// NewFile opens (or lazily creates) the vault file at path. The passphrase
// is retained for the lifetime of the handle; callers own its zeroing.
func NewFile(path string, passphrase []byte) (*File, error) {
	f := &File{path: path, passphrase: passphrase}
	// Fail fast if an existing file cannot be decrypted.
	if _, err := os.Stat(path); err == nil {
		if _, err := f.load(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *File) Store(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.load()
	if err != nil {
		return err
	}
	entries[name] = value
	return f.save(entries)
}

func (f *File) Retrieve(name string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.load()
	if err != nil {
		return "", false, err
	}
	value, ok := entries[name]
	return value, ok, nil
}

func (f *File) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := entries[name]; !ok {
		return nil
	}
	delete(entries, name)
	return f.save(entries)
}

func (f *File) Degraded() bool { return true }

func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("%w: malformed vault file: %v", ErrUnavailable, err)
	}

	salt, err := base64.StdEncoding.DecodeString(ff.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad salt: %v", ErrUnavailable, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(ff.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: bad nonce: %v", ErrUnavailable, err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(ff.CipherText)
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext: %v", ErrUnavailable, err)
	}

	aesGCM, err := f.cipher(salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: wrong passphrase or corrupted file", ErrUnavailable)
	}
	defer clear(plaintext)

	entries := make(map[string]string)
	if err := json.Unmarshal(plaintext, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return entries, nil
}

func (f *File) save(entries map[string]string) error {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	plaintext, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal vault entries: %w", err)
	}
	defer clear(plaintext)

	aesGCM, err := f.cipher(salt)
	if err != nil {
		return err
	}
	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	fileData, err := json.MarshalIndent(fileFormat{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vault file: %w", err)
	}

	if err := os.WriteFile(f.path, fileData, 0600); err != nil {
		return fmt.Errorf("failed to write vault file: %w", err)
	}
	return nil
}

func (f *File) cipher(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(f.passphrase, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
