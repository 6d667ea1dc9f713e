package normalizer

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"sitesync/internal/config"
	"sitesync/pkg/utils"

	"golang.org/x/text/unicode/norm"
)

// KeyGenerator derives unique site keys. A generator holds the keys issued so
// far, so use a fresh one per catalog.
type KeyGenerator struct {
	used     map[string]struct{}
	strings  *utils.StringHelper
	strategy string
	prefix   string
	maxLen   int
	hashLen  int
}

// NewKeyGenerator creates a generator for the configured strategy.
func NewKeyGenerator(cfg config.NormalizeConfig) *KeyGenerator {
	return &KeyGenerator{
		used:     make(map[string]struct{}),
		strings:  utils.NewStringHelper(),
		strategy: cfg.KeyStrategy,
		prefix:   cfg.KeyPrefix,
		maxLen:   cfg.MaxKeyLength,
		hashLen:  cfg.HashLength,
	}
}

// Next returns an unused key for the site, appending _1, _2, ... on collision.
func (g *KeyGenerator) Next(name, api string) string {
	base := g.Base(name, api)

	key := base
	for i := 1; g.isUsed(key); i++ {
		key = fmt.Sprintf("%s_%d", base, i)
	}

	g.used[key] = struct{}{}

	return key
}

// Base returns the key before collision handling.
func (g *KeyGenerator) Base(name, api string) string {
	if g.strategy == config.KeyStrategyHash {
		return g.prefix + HashToken(api, g.hashLen)
	}

	token := g.strings.TruncateRunes(SanitizeName(name), g.maxLen)
	if token == "" {
		// Names made only of symbols still need a stable key.
		return g.prefix + HashToken(api, g.hashLen)
	}

	return g.prefix + token
}

// Reserve marks key as taken.
func (g *KeyGenerator) Reserve(key string) {
	g.used[key] = struct{}{}
}

func (g *KeyGenerator) isUsed(key string) bool {
	_, ok := g.used[key]

	return ok
}

// SanitizeName folds a display name to lowercase letters, digits and underscores.
// Compatibility forms are unified first, so full-width "ＡＢＣ" becomes "abc".
func SanitizeName(name string) string {
	folded := strings.ToLower(norm.NFKC.String(name))

	var sb strings.Builder

	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// HashToken returns the first n hex characters of the MD5 digest of s.
func HashToken(s string, n int) string {
	sum := md5.Sum([]byte(s))
	token := hex.EncodeToString(sum[:])

	if n > 0 && n < len(token) {
		return token[:n]
	}

	return token
}
