package credentials

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

// Params are Argon2id cost parameters.
type Params struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams matches the engine's default password configuration.
var DefaultParams = Params{
	Memory:      65536,
	Time:        3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher produces and checks PHC-formatted Argon2id hashes.
type Hasher struct {
	params Params
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
	keyLength   uint32
}

// NewHasher validates p.
func NewHasher(p Params) (*Hasher, error) {
	if err := validateParams(p); err != nil {
		return nil, err
	}
	return &Hasher{params: p}, nil
}

// Hash returns $argon2id$v=19$m=..,t=..,p=..$salt$hash. Portal passwords are
// often short shared codes, so only the empty password is refused.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Time,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encodedHash. The comparison is
// constant time; a malformed hash is an error.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		parsed.keyLength,
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker
// parameters than h uses.
func (h *Hasher) NeedsUpgrade(encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	switch {
	case h.params.Memory > parsed.memory,
		h.params.Time > parsed.time,
		h.params.Parallelism > parsed.parallelism,
		h.params.KeyLength != parsed.keyLength:
		return true, nil
	}
	return false, nil
}

func parsePHC(encodedHash string) (*parsedPHC, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}

	if parts[1] != algorithmID {
		return nil, errors.New("unsupported algorithm")
	}

	versionPart := parts[2]
	if !strings.HasPrefix(versionPart, "v=") {
		return nil, errors.New("missing argon2 version")
	}

	version, err := strconv.Atoi(strings.TrimPrefix(versionPart, "v="))
	if err != nil {
		return nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, errors.New("invalid salt encoding")
	}
	if len(salt) < int(minSaltLength) {
		return nil, errors.New("invalid salt length")
	}

	hash, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, errors.New("invalid hash encoding")
	}
	if len(hash) == 0 {
		return nil, errors.New("invalid hash length")
	}

	return &parsedPHC{
		memory:      params.Memory,
		time:        params.Time,
		parallelism: params.Parallelism,
		salt:        salt,
		hash:        hash,
		keyLength:   uint32(len(hash)),
	}, nil
}

func parseParams(part string) (*Params, error) {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return nil, errors.New("invalid parameter format")
	}

	var (
		memorySet, timeSet, parallelismSet bool
		params                             Params
	)

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.New("invalid parameter entry")
		}

		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minMemoryKB) {
				return nil, errors.New("invalid memory parameter")
			}
			params.Memory = uint32(n)
			memorySet = true
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minTimeCost) {
				return nil, errors.New("invalid time parameter")
			}
			params.Time = uint32(n)
			timeSet = true
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < uint64(minParallelism) {
				return nil, errors.New("invalid parallelism parameter")
			}
			params.Parallelism = uint8(n)
			parallelismSet = true
		default:
			return nil, errors.New("unsupported parameter")
		}
	}

	if !memorySet || !timeSet || !parallelismSet {
		return nil, errors.New("missing parameters")
	}

	return &params, nil
}

func validateParams(p Params) error {
	if p.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if p.Time < minTimeCost {
		return errors.New("password time must be >= 1")
	}
	if p.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	if p.SaltLength < minSaltLength {
		return errors.New("password salt length must be >= 16")
	}
	if p.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 16")
	}
	return nil
}
