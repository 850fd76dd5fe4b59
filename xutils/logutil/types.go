package logutil

type Config struct {
	Level    string `json:",default=error,options=debug|info|error|severe"`
	Encoding string `json:",default=plain,options=plain|json"`
	// Limit caps the log lines written in one run; 0 means no cap.
	Limit int `json:",default=1000"`
}
