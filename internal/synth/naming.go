package synth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/vnykmshr/memoproxy/internal/model"
)

const (
	nameDomain      = "memoproxy/proxy-name/v1"
	signatureDomain = "memoproxy/proxy-signature/v1"
)

// ProxyName returns <Name>Proxy<16 hex>. The suffix hashes the declaring
// file and the service id, or the method table when the source is unknown.
func ProxyName(desc model.ProxyDescriptor) string {
	h := sha256.New()
	if desc.Source != nil {
		h.Write([]byte(nameDomain))
		h.Write([]byte{0})
		h.Write(desc.Source)
	} else {
		h.Write([]byte(signatureDomain))
		h.Write([]byte{0})
		h.Write([]byte(signatureTable(desc)))
	}
	h.Write([]byte{0})
	h.Write([]byte(desc.ServiceID))

	sum := h.Sum(nil)
	return exported(desc.Original.Name) + "Proxy" + hex.EncodeToString(sum[:8])
}

// signatureTable is the canonical text of a type's methods
func signatureTable(desc model.ProxyDescriptor) string {
	fullPath := func(path, _ string) string { return path }

	var b strings.Builder
	b.WriteString(desc.Original.String())
	b.WriteByte('\n')
	for _, iface := range desc.Interfaces {
		b.WriteString("implements ")
		b.WriteString(iface.Emit(fullPath))
		b.WriteByte('\n')
	}
	for _, m := range desc.Methods {
		b.WriteString(m.Signature(fullPath))
		b.WriteByte('\n')
	}
	return b.String()
}

func exported(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// FileName converts a type name to snake case with the _memo.go suffix
func FileName(typeName string) string {
	return snake(typeName) + FileSuffix
}

// FileSuffix ends every generated file name
const FileSuffix = "_memo.go"

func snake(name string) string {
	r := []rune(name)
	var b strings.Builder
	for i, c := range r {
		if unicode.IsUpper(c) {
			prevLower := i > 0 && (unicode.IsLower(r[i-1]) || unicode.IsDigit(r[i-1]))
			nextLower := i > 0 && i+1 < len(r) && unicode.IsUpper(r[i-1]) && unicode.IsLower(r[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(c))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
