package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Properties is the resolved flat configuration handed to the pipeline
// gateway.
type Properties map[string]string

// Clone returns a copy of the property mapping.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Fingerprint returns a stable digest of the mapping, independent of map
// iteration order. Used to key pipeline reuse and the annotation cache.
func (p Properties) Fingerprint() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	for _, k := range keys {
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(p[k])
		buf.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(buf.String()))
	return hex.EncodeToString(sum[:])
}
