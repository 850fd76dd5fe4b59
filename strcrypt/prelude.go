package strcrypt

import (
	"fmt"
	"strings"

	"gomod.pri/cobf/reserved"
)

const cDecryptPrelude = `/* string decryption */
#include <stdlib.h>
#include <string.h>
#include <openssl/evp.h>

static char* _decrypt_str(const char* encrypted, const char* key) {
    unsigned char k[32] = {0};
    size_t kl = strlen(key);
    memcpy(k, key, kl > 32 ? 32 : kl);

    int el = (int)strlen(encrypted);
    unsigned char* raw = (unsigned char*)malloc((size_t)el + 1);
    if (!raw) return NULL;
    int rl = EVP_DecodeBlock(raw, (const unsigned char*)encrypted, el);
    while (el > 0 && encrypted[el - 1] == '=') { el--; rl--; }
    if (rl < 32) { free(raw); return NULL; }

    unsigned char* plain = (unsigned char*)malloc((size_t)rl + 1);
    if (!plain) { free(raw); return NULL; }
    int len = 0, pl = 0;
    EVP_CIPHER_CTX* ctx = EVP_CIPHER_CTX_new();
    EVP_DecryptInit_ex(ctx, EVP_aes_256_cbc(), NULL, k, raw);
    EVP_DecryptUpdate(ctx, plain, &len, raw + 16, rl - 16);
    pl = len;
    EVP_DecryptFinal_ex(ctx, plain + pl, &len);
    pl += len;
    EVP_CIPHER_CTX_free(ctx);
    free(raw);

    char* out = (char*)malloc((size_t)pl * 4 + 1);
    if (!out) { free(plain); return NULL; }
    int o = 0;
    for (int i = 0; i < pl; i++) {
        unsigned char c = plain[i];
        if (c != '\\' || i + 1 >= pl) { out[o++] = (char)c; continue; }
        c = plain[++i];
        switch (c) {
        case 'n': out[o++] = '\n'; break;
        case 't': out[o++] = '\t'; break;
        case 'r': out[o++] = '\r'; break;
        case 'a': out[o++] = '\a'; break;
        case 'b': out[o++] = '\b'; break;
        case 'f': out[o++] = '\f'; break;
        case 'v': out[o++] = '\v'; break;
        case '\n': break;
        case '\r': if (i + 1 < pl && plain[i + 1] == '\n') i++; break;
        case 'x': case 'u': case 'U': {
            unsigned long v = 0;
            int max = c == 'x' ? 64 : (c == 'u' ? 4 : 8), n = 0;
            while (n < max && i + 1 < pl) {
                unsigned char h = plain[i + 1];
                int d = (h >= '0' && h <= '9') ? h - '0' : (h >= 'a' && h <= 'f') ? h - 'a' + 10 : (h >= 'A' && h <= 'F') ? h - 'A' + 10 : -1;
                if (d < 0) break;
                v = v * 16 + (unsigned long)d; i++; n++;
            }
            if (c == 'x' || v < 0x80) { out[o++] = (char)v; }
            else if (v < 0x800) { out[o++] = (char)(0xC0 | (v >> 6)); out[o++] = (char)(0x80 | (v & 0x3F)); }
            else if (v < 0x10000) { out[o++] = (char)(0xE0 | (v >> 12)); out[o++] = (char)(0x80 | ((v >> 6) & 0x3F)); out[o++] = (char)(0x80 | (v & 0x3F)); }
            else { out[o++] = (char)(0xF0 | (v >> 18)); out[o++] = (char)(0x80 | ((v >> 12) & 0x3F)); out[o++] = (char)(0x80 | ((v >> 6) & 0x3F)); out[o++] = (char)(0x80 | (v & 0x3F)); }
            break;
        }
        default:
            if (c >= '0' && c <= '7') {
                unsigned v = (unsigned)(c - '0');
                for (int n = 1; n < 3 && i + 1 < pl && plain[i + 1] >= '0' && plain[i + 1] <= '7'; n++) {
                    v = v * 8 + (unsigned)(plain[++i] - '0');
                }
                out[o++] = (char)v;
            } else {
                out[o++] = (char)c;
            }
        }
    }
    out[o] = '\0';
    free(plain);
    return out;
}

`

const cppDecryptPrelude = `// string decryption
#include <cstring>
#include <string>
#include <vector>
#include <openssl/evp.h>

static std::string _decrypt_str(const std::string& encrypted, const std::string& key) {
    unsigned char k[32] = {0};
    std::memcpy(k, key.data(), key.size() > 32 ? 32 : key.size());

    int el = (int)encrypted.size();
    std::vector<unsigned char> raw((size_t)el + 1);
    int rl = EVP_DecodeBlock(raw.data(), reinterpret_cast<const unsigned char*>(encrypted.data()), el);
    while (el > 0 && encrypted[el - 1] == '=') { el--; rl--; }
    if (rl < 32) return std::string();

    std::vector<unsigned char> plain((size_t)rl + 16);
    int len = 0, pl = 0;
    EVP_CIPHER_CTX* ctx = EVP_CIPHER_CTX_new();
    EVP_DecryptInit_ex(ctx, EVP_aes_256_cbc(), nullptr, k, raw.data());
    EVP_DecryptUpdate(ctx, plain.data(), &len, raw.data() + 16, rl - 16);
    pl = len;
    EVP_DecryptFinal_ex(ctx, plain.data() + pl, &len);
    pl += len;
    EVP_CIPHER_CTX_free(ctx);

    std::string out;
    out.reserve((size_t)pl);
    for (int i = 0; i < pl; i++) {
        unsigned char c = plain[i];
        if (c != '\\' || i + 1 >= pl) { out += (char)c; continue; }
        c = plain[++i];
        switch (c) {
        case 'n': out += '\n'; break;
        case 't': out += '\t'; break;
        case 'r': out += '\r'; break;
        case 'a': out += '\a'; break;
        case 'b': out += '\b'; break;
        case 'f': out += '\f'; break;
        case 'v': out += '\v'; break;
        case '\n': break;
        case '\r': if (i + 1 < pl && plain[i + 1] == '\n') i++; break;
        case 'x': case 'u': case 'U': {
            unsigned long v = 0;
            int max = c == 'x' ? 64 : (c == 'u' ? 4 : 8), n = 0;
            while (n < max && i + 1 < pl) {
                unsigned char h = plain[i + 1];
                int d = (h >= '0' && h <= '9') ? h - '0' : (h >= 'a' && h <= 'f') ? h - 'a' + 10 : (h >= 'A' && h <= 'F') ? h - 'A' + 10 : -1;
                if (d < 0) break;
                v = v * 16 + (unsigned long)d; i++; n++;
            }
            if (c == 'x' || v < 0x80) { out += (char)v; }
            else if (v < 0x800) { out += (char)(0xC0 | (v >> 6)); out += (char)(0x80 | (v & 0x3F)); }
            else if (v < 0x10000) { out += (char)(0xE0 | (v >> 12)); out += (char)(0x80 | ((v >> 6) & 0x3F)); out += (char)(0x80 | (v & 0x3F)); }
            else { out += (char)(0xF0 | (v >> 18)); out += (char)(0x80 | ((v >> 12) & 0x3F)); out += (char)(0x80 | ((v >> 6) & 0x3F)); out += (char)(0x80 | (v & 0x3F)); }
            break;
        }
        default:
            if (c >= '0' && c <= '7') {
                unsigned v = (unsigned)(c - '0');
                for (int n = 1; n < 3 && i + 1 < pl && plain[i + 1] >= '0' && plain[i + 1] <= '7'; n++) {
                    v = v * 8 + (unsigned)(plain[++i] - '0');
                }
                out += (char)v;
            } else {
                out += (char)c;
            }
        }
    }
    return out;
}

`

// DecryptPrelude is the fixed decryption-function fragment of d.
func DecryptPrelude(d reserved.Dialect) string {
	if d == reserved.DialectCPP {
		return cppDecryptPrelude
	}
	return cDecryptPrelude
}

// Declarations renders one static initializer per record.
func Declarations(d reserved.Dialect, table *Table, key []byte) string {
	typ := "char*"
	if d == reserved.DialectCPP {
		typ = "std::string"
	}
	k := KeyLiteral(key)

	var b strings.Builder
	for _, r := range table.Records() {
		fmt.Fprintf(&b, "static %s %s = _decrypt_str(\"%s\", \"%s\");\n", typ, r.VarName, r.EncryptedB64, k)
	}
	return b.String()
}

// KeyLiteral renders the normalized key as the body of a C string literal.
// Trailing zero padding is dropped; the prelude pads it back.
func KeyLiteral(key []byte) string {
	k := NormalizeKey(key)
	n := len(k)
	for n > 0 && k[n-1] == 0 {
		n--
	}

	var b strings.Builder
	for _, c := range k[:n] {
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '?':
			// keeps "??x" from forming a trigraph
			b.WriteString(`\?`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, "\\%03o", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
