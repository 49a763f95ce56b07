package cart

import (
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ItemKey derives the cart key for a product, variation and custom line data.
// Fields are length-prefixed and map entries sorted, so equal inputs always
// share a key and distinct inputs never share an encoding.
func ItemKey(productID, variationID string, variation, lineData map[string]string) string {
	var b strings.Builder
	writeField(&b, productID)
	writeField(&b, variationID)
	writeMap(&b, variation)
	writeMap(&b, lineData)
	sum := blake2b.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

func writeField(b *strings.Builder, v string) {
	b.WriteString(strconv.Itoa(len(v)))
	b.WriteByte(':')
	b.WriteString(v)
}

func writeMap(b *strings.Builder, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString(strconv.Itoa(len(keys)))
	b.WriteByte('#')
	for _, k := range keys {
		writeField(b, k)
		writeField(b, m[k])
	}
}
