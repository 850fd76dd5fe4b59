package strcrypt

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomod.pri/cobf/reserved"
)

func TestDecryptPrelude(t *testing.T) {
	c := DecryptPrelude(reserved.DialectC)
	cpp := DecryptPrelude(reserved.DialectCPP)

	assert.Contains(t, c, "static char* _decrypt_str(const char* encrypted, const char* key)")
	assert.Contains(t, cpp, "static std::string _decrypt_str(const std::string& encrypted, const std::string& key)")
	for _, p := range []string{c, cpp} {
		assert.Contains(t, p, "EVP_aes_256_cbc()")
		assert.Contains(t, p, "EVP_DecodeBlock")
		assert.Contains(t, p, `case '\n': break;`)
		assert.True(t, strings.HasSuffix(p, "\n"))
	}
}

func TestDeclarations(t *testing.T) {
	c, err := NewCipher([]byte(DefaultKey), zeroReader{})
	require.NoError(t, err)
	table := &Table{}
	for _, s := range []string{"hello", "world"} {
		enc, err := c.Encrypt([]byte(s))
		require.NoError(t, err)
		table.add(s, enc)
	}

	tests := []struct {
		dialect reserved.Dialect
		typ     string
	}{
		{reserved.DialectC, `char\*`},
		{reserved.DialectCPP, `std::string`},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.String(), func(t *testing.T) {
			decl := Declarations(tt.dialect, table, []byte(DefaultKey))
			lines := strings.Split(strings.TrimSuffix(decl, "\n"), "\n")
			require.Len(t, lines, 2)

			re := regexp.MustCompile(`^static ` + tt.typ + ` (_str_\d+) = _decrypt_str\("([A-Za-z0-9+/=]+)", "` + DefaultKey + `"\);$`)
			for i, line := range lines {
				m := re.FindStringSubmatch(line)
				require.NotNil(t, m, line)
				assert.Equal(t, VarName(i), m[1])
				assert.Equal(t, table.Records()[i].EncryptedB64, m[2])
			}
		})
	}
}

func TestDeclarationsEmptyTable(t *testing.T) {
	assert.Empty(t, Declarations(reserved.DialectC, &Table{}, nil))
	assert.Empty(t, Declarations(reserved.DialectC, nil, nil))
}

func TestKeyLiteral(t *testing.T) {
	tests := []struct {
		name string
		key  []byte
		want string
	}{
		{"default", []byte(DefaultKey), DefaultKey},
		{"short key drops padding", []byte("abc"), "abc"},
		{"quote and backslash", []byte(`a"b\c`), `a\"b\\c`},
		{"control byte", []byte{'k', 0x01, 'z'}, `k\001z`},
		{"trigraph", []byte("??="), `\?\?=`},
		{"truncated", []byte(strings.Repeat("x", 40)), strings.Repeat("x", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyLiteral(tt.key))
		})
	}
}
