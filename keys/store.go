package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore is a simple local-first key layout: one root seed per signer
// identifier, with session-scoped subkeys derived on demand.
//
// Ed25519 seeds only, stored hex-encoded on the local filesystem.
type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Identifier string
	Sessions   []string
}

func DefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".wraithspec", "keys"), nil
}

func OpenKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootKeyPath(identifier string) string {
	return filepath.Join(ks.Directory, identifier, "root.key")
}

func (ks *KeyStore) sessionKeyPath(identifier, sid string) string {
	return filepath.Join(ks.Directory, identifier, "sessions", sid+".key")
}

func CheckKeyName(identifier string) error {
	if identifier == "" {
		return errors.New("identifier cannot be empty")
	}
	for _, char := range identifier {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in identifier", char)
	}
	return nil
}

// CheckSessionID accepts the same charset as key names: both base36 session
// tokens and hyphenated UUIDs pass, path separators do not.
func CheckSessionID(sid string) error {
	if sid == "" {
		return errors.New("session id cannot be empty")
	}
	for _, char := range sid {
		if (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') || char == '-' {
			continue
		}
		return fmt.Errorf("invalid character %q in session id", char)
	}
	return nil
}

func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func (ks *KeyStore) saveSeedToFile(filePath string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadSeedFromFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(strings.TrimSpace(string(data)))
}

func (ks *KeyStore) InitializeRootKey(identifier string, seed []byte, overwrite bool) (signerKey string, filePath string, err error) {
	if err := CheckKeyName(identifier); err != nil {
		return "", "", err
	}
	filePath = ks.rootKeyPath(identifier)
	if err := ks.saveSeedToFile(filePath, seed, overwrite); err != nil {
		return "", "", err
	}
	return SignerKeyFromSeed(seed), filePath, nil
}

// DeriveSessionKey derives and stores the session subkey for sid under the
// named signer's root seed.
func (ks *KeyStore) DeriveSessionKey(from, sid string, overwrite bool) (signerKey string, filePath string, err error) {
	if err := CheckKeyName(from); err != nil {
		return "", "", err
	}
	if err := CheckSessionID(sid); err != nil {
		return "", "", err
	}
	rootSeed, err := ks.loadSeedFromFile(ks.rootKeyPath(from))
	if err != nil {
		return "", "", err
	}
	sessionSeed, err := DeriveSessionSeed(rootSeed, sid)
	if err != nil {
		return "", "", err
	}
	filePath = ks.sessionKeyPath(from, sid)
	if err := ks.saveSeedToFile(filePath, sessionSeed, overwrite); err != nil {
		return "", "", err
	}
	return SignerKeyFromSeed(sessionSeed), filePath, nil
}

func (ks *KeyStore) ExportKey(identifier string, sid string) (string, error) {
	if err := CheckKeyName(identifier); err != nil {
		return "", err
	}
	var seed []byte
	var err error
	if sid == "" {
		seed, err = ks.loadSeedFromFile(ks.rootKeyPath(identifier))
	} else {
		if err := CheckSessionID(sid); err != nil {
			return "", err
		}
		seed, err = ks.loadSeedFromFile(ks.sessionKeyPath(identifier, sid))
	}
	if err != nil {
		return "", err
	}
	return SignerKeyFromSeed(seed), nil
}

// LoadSeed resolves a signing seed from the first source provided: a literal
// hex seed, an explicit key file, or a named signer (optionally session-scoped).
func (ks *KeyStore) LoadSeed(seedHex, signerName, sid, keyFile string) ([]byte, error) {
	if seedHex != "" {
		return ParseSeedHex(seedHex)
	}
	if keyFile != "" {
		return ks.loadSeedFromFile(keyFile)
	}
	if signerName != "" {
		if err := CheckKeyName(signerName); err != nil {
			return nil, err
		}
		if sid == "" {
			return ks.loadSeedFromFile(ks.rootKeyPath(signerName))
		}
		if err := CheckSessionID(sid); err != nil {
			return nil, err
		}
		return ks.loadSeedFromFile(ks.sessionKeyPath(signerName, sid))
	}
	return nil, errors.New("no signer provided")
}

func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var identifiers []string
	for _, entry := range entries {
		if entry.IsDir() {
			identifiers = append(identifiers, entry.Name())
		}
	}
	sort.Strings(identifiers)

	var result []KeyEntry
	for _, identifier := range identifiers {
		sessionsDir := filepath.Join(ks.Directory, identifier, "sessions")
		sessionEntries, serr := os.ReadDir(sessionsDir)
		var sessions []string
		if serr == nil {
			for _, se := range sessionEntries {
				if se.IsDir() {
					continue
				}
				if strings.HasSuffix(se.Name(), ".key") {
					sessions = append(sessions, strings.TrimSuffix(se.Name(), ".key"))
				}
			}
			sort.Strings(sessions)
		}
		result = append(result, KeyEntry{Identifier: identifier, Sessions: sessions})
	}
	return result, nil
}
