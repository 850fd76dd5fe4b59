package xerror

// Error kinds. Every failure that aborts a run carries exactly one of them.
const (
	CodeIoError      = 1
	CodeLexError     = 2
	CodeCryptoError  = 3
	CodeNameError    = 4
	CodePatternError = 5
	CodeConfigError  = 6
)

var ErrMsgs = map[int]string{
	CodeIoError:      "io error",
	CodeLexError:     "lex error",
	CodeCryptoError:  "crypto error",
	CodeNameError:    "name error",
	CodePatternError: "pattern error",
	CodeConfigError:  "config error",
}
