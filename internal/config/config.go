package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the full environment surface for both binaries. It is loaded once
// at process start and passed to every component that needs it.
type Config struct {
	// LearningBox (source LMS)
	LearningBoxBaseURL string
	LearningBoxAPIKey  string

	// Rise Up (target LMS)
	RiseUpBaseURL       string
	RiseUpPublicKey     string
	RiseUpPrivateKey    string
	RiseUpCreatorUserID int64

	// Webhook
	WebhookBaseURL    string
	WebhookPath       string
	WebhookListenAddr string
	WebhookSecret     string // reserved for signature verification, currently unused

	// SCORM export request defaults
	ExportClientID    string
	ExportType        string
	ExportFormat      string
	ExportNavigation  string
	ExportWebhookVerb string

	// Mapping store
	MappingFilePath string

	// Package archival (both optional; empty host disables SFTP)
	ArchiveDir                string
	SFTPHost                  string
	SFTPPort                  int
	SFTPUser                  string
	SFTPPass                  string
	SFTPDir                   string
	SFTPInsecureIgnoreHostKey bool

	// Logging
	LogLevel  string
	LogPretty bool
}

func Load() Config {
	return Config{
		LearningBoxBaseURL: os.Getenv("LEARNINGBOX_API_ENDPOINT"),
		LearningBoxAPIKey:  os.Getenv("LEARNINGBOX_API_KEY"),

		RiseUpBaseURL:       os.Getenv("RISEUP_API_ENDPOINT"),
		RiseUpPublicKey:     os.Getenv("RISEUP_PUBLIC_KEY"),
		RiseUpPrivateKey:    os.Getenv("RISEUP_PRIVATE_KEY"),
		RiseUpCreatorUserID: getenvInt64("RISEUP_CREATOR_USER_ID", 0),

		WebhookBaseURL:    os.Getenv("WEBHOOK_BASE_URL"),
		WebhookPath:       getenv("WEBHOOK_PATH", "/learningbox_webhook"),
		WebhookListenAddr: getenv("WEBHOOK_LISTEN_ADDR", ":5001"),
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),

		ExportClientID:    getenv("LB_REQUEST_CLIENT_ID", "001"),
		ExportType:        getenv("LB_REQUEST_TYPE", "light"),
		ExportFormat:      getenv("LB_REQUEST_FORMAT", "scorm2004"),
		ExportNavigation:  getenv("LB_REQUEST_NAVIGATION", "free"),
		ExportWebhookVerb: getenv("LB_REQUEST_WEBHOOK_VERB", "POST"),

		MappingFilePath: getenv("MAPPING_FILE_PATH", "lb_to_riseup_mapping.json"),

		ArchiveDir:                os.Getenv("ARCHIVE_DIR"),
		SFTPHost:                  os.Getenv("SFTP_HOST"),
		SFTPPort:                  getenvInt("SFTP_PORT", 22),
		SFTPUser:                  os.Getenv("SFTP_USER"),
		SFTPPass:                  os.Getenv("SFTP_PASS"),
		SFTPDir:                   getenv("SFTP_DIR", "/scorm-archive"),
		SFTPInsecureIgnoreHostKey: getenvBool("SFTP_INSECURE_IGNORE_HOSTKEY", true),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogPretty: getenvBool("LOG_PRETTY", false),
	}
}

// Validate fails fast on missing required settings, reporting all of them at
// once so one run of the binary surfaces every gap in the environment.
func (c Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"LEARNINGBOX_API_ENDPOINT", c.LearningBoxBaseURL},
		{"LEARNINGBOX_API_KEY", c.LearningBoxAPIKey},
		{"RISEUP_API_ENDPOINT", c.RiseUpBaseURL},
		{"RISEUP_PUBLIC_KEY", c.RiseUpPublicKey},
		{"RISEUP_PRIVATE_KEY", c.RiseUpPrivateKey},
		{"WEBHOOK_BASE_URL", c.WebhookBaseURL},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	// Zero means unset or unparsable; Rise Up rejects courses without a
	// creator, so fail here rather than at the first create call.
	if c.RiseUpCreatorUserID == 0 {
		missing = append(missing, "RISEUP_CREATOR_USER_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// FullWebhookURL is the callback URL handed to LearningBox export requests.
func (c Config) FullWebhookURL() string {
	return strings.TrimRight(c.WebhookBaseURL, "/") + c.WebhookPath
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvInt64(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
