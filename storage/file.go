package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minPassBytes          = 10

	fileMagic = "gss1"
	keyLength = chacha20poly1305.KeySize
)

// SealConfig tunes the argon2id derivation of the file encryption key.
type SealConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
}

// DefaultSealConfig returns argon2id parameters suitable for an interactive CLI.
func DefaultSealConfig() SealConfig {
	return SealConfig{
		Memory:      64 * 1024,
		Time:        1,
		Parallelism: 4,
		SaltLength:  16,
	}
}

func (c SealConfig) validate() error {
	if c.Memory < minMemoryKB {
		return errors.New("seal memory must be at least 8192 KB")
	}
	if c.Time < minTimeCost {
		return errors.New("seal time cost must be at least 1")
	}
	if c.Parallelism < minParallelism {
		return errors.New("seal parallelism must be at least 1")
	}
	if c.SaltLength < minSaltLength {
		return errors.New("seal salt length must be at least 16")
	}
	return nil
}

// File is a [KV] persisted as one sealed file. The whole map is rewritten on
// every mutation through a temp file + rename, so readers never observe a
// partial write.
type File struct {
	path       string
	passphrase []byte
	cfg        SealConfig

	mu      sync.Mutex
	salt    []byte
	derived []byte
}

// NewFile opens (lazily) a sealed store at path. The passphrase must be at
// least 10 bytes.
func NewFile(path, passphrase string, cfg SealConfig) (*File, error) {
	if path == "" {
		return nil, errors.New("file store path is empty")
	}
	if len(passphrase) < minPassBytes {
		return nil, errors.New("file store passphrase must be at least 10 bytes")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &File{
		path:       path,
		passphrase: []byte(passphrase),
		cfg:        cfg,
	}, nil
}

// Path returns the location of the sealed file.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	data[key] = value
	return f.save(data)
}

func (f *File) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	if len(data) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fileError("remove", f.path, err)
		}
		return nil
	}
	return f.save(data)
}

// load must be called with mu held.
func (f *File) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fileError("read", f.path, err)
	}

	saltLen := int(f.cfg.SaltLength)
	header := len(fileMagic) + saltLen + chacha20poly1305.NonceSizeX
	if len(raw) < header+chacha20poly1305.Overhead || !bytes.HasPrefix(raw, []byte(fileMagic)) {
		return nil, corrupt(f.path, errors.New("unexpected header"))
	}

	salt := raw[len(fileMagic) : len(fileMagic)+saltLen]
	nonce := raw[len(fileMagic)+saltLen : header]
	sealed := raw[header:]

	aead, err := chacha20poly1305.NewX(f.key(salt))
	if err != nil {
		return nil, corrupt(f.path, err)
	}
	plain, err := aead.Open(nil, nonce, sealed, []byte(fileMagic))
	if err != nil {
		return nil, corrupt(f.path, err)
	}

	data := map[string]string{}
	if err := json.Unmarshal(plain, &data); err != nil {
		return nil, corrupt(f.path, err)
	}
	return data, nil
}

// save must be called with mu held.
func (f *File) save(data map[string]string) error {
	plain, err := json.Marshal(data)
	if err != nil {
		return fileError("encode", f.path, err)
	}

	if f.salt == nil {
		salt := make([]byte, f.cfg.SaltLength)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fileError("salt", f.path, err)
		}
		f.salt = salt
		f.derived = nil
	}

	aead, err := chacha20poly1305.NewX(f.key(f.salt))
	if err != nil {
		return fileError("cipher", f.path, err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fileError("nonce", f.path, err)
	}

	out := make([]byte, 0, len(fileMagic)+len(f.salt)+len(nonce)+len(plain)+chacha20poly1305.Overhead)
	out = append(out, fileMagic...)
	out = append(out, f.salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plain, []byte(fileMagic))

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fileError("mkdir", f.path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".gosession-*")
	if err != nil {
		return fileError("create", f.path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(out); err != nil {
		_ = tmp.Close()
		return fileError("write", f.path, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fileError("chmod", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fileError("close", f.path, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fileError("rename", f.path, err)
	}
	return nil
}

// key derives (and memoizes per salt) the encryption key. Must be called
// with mu held.
func (f *File) key(salt []byte) []byte {
	if f.derived != nil && bytes.Equal(f.salt, salt) {
		return f.derived
	}
	derived := argon2.IDKey(f.passphrase, salt, f.cfg.Time, f.cfg.Memory, f.cfg.Parallelism, keyLength)
	f.salt = append([]byte(nil), salt...)
	f.derived = derived
	return derived
}

func fileError(op, path string, err error) error {
	return oops.
		Code("STORAGE_FILE_IO").
		In("storage").
		With("backend", "file").
		With("operation", op).
		With("path", path).
		Wrap(fmt.Errorf("%w: %v", ErrUnavailable, err))
}

func corrupt(path string, err error) error {
	return oops.
		Code("STORAGE_FILE_CORRUPT").
		In("storage").
		With("backend", "file").
		With("path", path).
		Wrap(fmt.Errorf("%w: %v", ErrCorrupt, err))
}
