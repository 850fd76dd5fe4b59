package reserved

import "github.com/samber/lo"

var cKeywords = []string{
	"auto", "break", "case", "char", "const", "continue", "default", "do",
	"double", "else", "enum", "extern", "float", "for", "goto", "if",
	"inline", "int", "long", "register", "restrict", "return", "short", "signed",
	"sizeof", "static", "struct", "switch", "typedef", "union", "unsigned", "void",
	"volatile", "while", "_Bool", "_Complex", "_Imaginary",
}

var cppKeywords = []string{
	"alignas", "alignof", "and", "and_eq", "asm", "atomic_cancel", "atomic_commit",
	"atomic_noexcept", "auto", "bitand", "bitor", "bool", "break", "case",
	"catch", "char", "char8_t", "char16_t", "char32_t", "class", "compl",
	"concept", "const", "consteval", "constexpr", "constinit", "const_cast",
	"continue", "co_await", "co_return", "co_yield", "decltype", "default",
	"delete", "do", "double", "dynamic_cast", "else", "enum", "explicit",
	"export", "extern", "false", "float", "for", "friend", "goto", "if",
	"inline", "int", "long", "mutable", "namespace", "new", "noexcept",
	"not", "not_eq", "nullptr", "operator", "or", "or_eq", "private",
	"protected", "public", "reflexpr", "register", "reinterpret_cast",
	"requires", "return", "short", "signed", "sizeof", "static",
	"static_assert", "static_cast", "struct", "switch", "synchronized",
	"template", "this", "thread_local", "throw", "true", "try", "typedef",
	"typeid", "typename", "union", "unsigned", "using", "virtual", "void",
	"volatile", "wchar_t", "while", "xor", "xor_eq",
}

// Names every dialect keeps: entry point, libc surface, header macros and
// the runtime names the emitted preludes call.
var commonPreserved = []string{
	"main",
	// stdio / stdlib / string / time
	"printf", "fprintf", "sprintf", "snprintf", "vprintf", "vfprintf", "vsnprintf",
	"puts", "fputs", "putchar", "fputc", "getchar", "fgetc", "fgets", "scanf", "fscanf", "sscanf",
	"fopen", "fclose", "fread", "fwrite", "fflush", "fseek", "ftell", "rewind", "feof", "ferror", "perror",
	"malloc", "calloc", "realloc", "free", "exit", "abort", "atexit", "atoi", "atol", "atof",
	"strtol", "strtoul", "strtod", "qsort", "bsearch", "abs", "labs", "getenv", "system",
	"rand", "srand", "time", "clock", "difftime",
	"memcpy", "memmove", "memset", "memcmp", "memchr",
	"strlen", "strcpy", "strncpy", "strcat", "strncat", "strcmp", "strncmp",
	"strstr", "strchr", "strrchr", "strdup", "strtok",
	"assert", "errno", "isalpha", "isdigit", "isalnum", "isspace", "isupper", "islower", "toupper", "tolower",
	// types and macros from the standard headers
	"FILE", "NULL", "EOF", "stdin", "stdout", "stderr", "size_t", "ssize_t", "ptrdiff_t",
	"wchar_t", "bool", "true", "false", "clock_t", "time_t", "CLOCKS_PER_SEC",
	"EXIT_SUCCESS", "EXIT_FAILURE", "SEEK_SET", "SEEK_CUR", "SEEK_END",
	"int8_t", "int16_t", "int32_t", "int64_t", "uint8_t", "uint16_t", "uint32_t", "uint64_t",
	"intptr_t", "uintptr_t", "va_list", "va_start", "va_arg", "va_end",
	"__FILE__", "__LINE__", "__func__", "__DATE__", "__TIME__",
	"__attribute__", "__declspec", "__asm__", "__asm", "__inline", "__restrict",
	// OpenSSL EVP surface of the string prelude
	"EVP_CIPHER_CTX", "EVP_CIPHER_CTX_new", "EVP_CIPHER_CTX_free", "EVP_aes_256_cbc",
	"EVP_DecryptInit_ex", "EVP_DecryptUpdate", "EVP_DecryptFinal_ex", "EVP_DecodeBlock",
	"EVP_EncryptInit_ex", "EVP_EncryptUpdate", "EVP_EncryptFinal_ex", "EVP_EncodeBlock",
	// anti-debug payload
	"ptrace", "PTRACE_TRACEME", "IsDebuggerPresent", "CheckRemoteDebuggerPresent",
	"GetCurrentProcess", "BOOL", "FALSE", "_WIN32",
}

var cppPreserved = []string{
	"std", "cout", "cin", "cerr", "clog", "endl", "string", "vector", "map", "set", "list",
	"shared_ptr", "unique_ptr", "make_shared", "make_unique", "move", "forward",
	"iostream", "fstream", "sstream", "algorithm", "iterator", "memory",
	"size", "length", "c_str", "data", "begin", "end", "push_back", "emplace_back",
	"override", "final", "import", "module",
	"chrono", "high_resolution_clock", "steady_clock", "duration_cast", "microseconds", "now", "count",
	"time_since_epoch",
	"first", "second", "find", "insert", "erase", "empty", "clear", "at", "append", "substr",
	"push", "pop", "front", "back", "reserve", "resize", "swap", "get", "reset", "release",
	"to_string", "getline", "unordered_map", "unordered_set", "array", "pair", "make_pair",
	"tuple", "optional", "function", "thread", "mutex", "lock_guard", "exception", "what",
	"runtime_error", "ostream", "istream", "stringstream", "ifstream", "ofstream", "exit",
}

var (
	cKeywordSet   = lo.SliceToMap(cKeywords, func(k string) (string, struct{}) { return k, struct{}{} })
	cppKeywordSet = lo.SliceToMap(cppKeywords, func(k string) (string, struct{}) { return k, struct{}{} })

	cPreservedSet   = lo.SliceToMap(commonPreserved, func(k string) (string, struct{}) { return k, struct{}{} })
	cppPreservedSet = lo.SliceToMap(lo.Union(commonPreserved, cppPreserved), func(k string) (string, struct{}) { return k, struct{}{} })
)

// Keywords returns the frozen keyword list of d.
func Keywords(d Dialect) []string {
	if d == DialectCPP {
		return append([]string(nil), cppKeywords...)
	}
	return append([]string(nil), cKeywords...)
}

// IsKeyword reports whether name is a keyword of d.
func IsKeyword(name string, d Dialect) bool {
	if d == DialectCPP {
		_, ok := cppKeywordSet[name]
		return ok
	}
	_, ok := cKeywordSet[name]
	return ok
}

// IsPreserved reports whether name is a keyword or a frozen preserved name of d.
// Names added to an Oracle at run time are not visible here.
func IsPreserved(name string, d Dialect) bool {
	if IsKeyword(name, d) {
		return true
	}
	if d == DialectCPP {
		_, ok := cppPreservedSet[name]
		return ok
	}
	_, ok := cPreservedSet[name]
	return ok
}
