// Package useragent classifies visitor User-Agent strings for visit records.
package useragent

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Parser wraps the uap-go parser with device type detection.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// DeviceInfo is the parsed classification of a User-Agent.
type DeviceInfo struct {
	DeviceType string // mobile, desktop, tablet, bot, unknown
	Browser    string
	OS         string
}

var (
	globalParser *Parser
	once         sync.Once
)

// NewParser loads the uap regexes file and builds a parser.
func NewParser(regexFilePath string, log *zap.Logger) (*Parser, error) {
	regexBytes, err := os.ReadFile(regexFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read regexes file: %w", err)
	}

	parser, err := uaparser.NewFromBytes(regexBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
	}

	log.Info("User-Agent parser initialized", zap.String("regexes_file", regexFilePath))

	return &Parser{parser: parser, log: log}, nil
}

// InitGlobalParser initializes the process-wide parser instance.
func InitGlobalParser(regexFilePath string, log *zap.Logger) error {
	var err error
	once.Do(func() {
		globalParser, err = NewParser(regexFilePath, log)
	})
	return err
}

// GetGlobalParser returns the singleton parser, or nil if it was never
// initialized. Callers must fall back gracefully on nil.
func GetGlobalParser() *Parser {
	return globalParser
}

// Parse classifies a User-Agent string.
func (p *Parser) Parse(userAgent string) *DeviceInfo {
	if userAgent == "" {
		return &DeviceInfo{DeviceType: "unknown", Browser: "unknown", OS: "unknown"}
	}

	client := p.parser.Parse(userAgent)

	return &DeviceInfo{
		DeviceType: deviceType(client, userAgent),
		Browser:    orUnknown(client.UserAgent.Family),
		OS:         orUnknown(client.Os.Family),
	}
}

// DetectDeviceType is the fallback classification used when the regexes
// file is unavailable and no Parser exists.
func DetectDeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case ua == "":
		return "unknown"
	case containsAny(ua, "bot", "crawler", "spider", "scraper"):
		return "bot"
	case containsAny(ua, "tablet", "ipad", "kindle", "silk", "playbook"):
		return "tablet"
	case containsAny(ua, "mobile", "android", "iphone", "ipod", "blackberry", "windows phone", "opera mini"):
		return "mobile"
	default:
		return "desktop"
	}
}

func deviceType(client *uaparser.Client, userAgent string) string {
	ua := strings.ToLower(userAgent)
	family := strings.ToLower(client.UserAgent.Family)

	if containsAny(family, "bot", "crawler", "spider") || containsAny(ua, "bot", "crawler", "spider", "scraper") {
		return "bot"
	}

	device := strings.ToLower(client.Device.Family)
	if containsAny(device, "ipad", "tablet", "kindle", "surface") {
		return "tablet"
	}

	osFamily := strings.ToLower(client.Os.Family)
	switch {
	case strings.Contains(osFamily, "ios"):
		if strings.Contains(ua, "ipad") {
			return "tablet"
		}
		return "mobile"
	case strings.Contains(osFamily, "android"):
		// Android tablets typically lack "Mobile" in the User-Agent.
		if !strings.Contains(ua, "mobile") {
			return "tablet"
		}
		return "mobile"
	case containsAny(osFamily, "windows phone", "blackberry", "firefox os", "sailfish"):
		return "mobile"
	case containsAny(osFamily, "windows", "mac os x", "macos", "linux", "ubuntu", "chrome os", "freebsd", "openbsd", "netbsd"):
		return "desktop"
	}

	return "unknown"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func orUnknown(s string) string {
	if s == "" || s == "Other" {
		return "unknown"
	}
	return s
}
