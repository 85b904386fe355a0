package tools

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/developer-mesh/mcp-github-server/internal/models"
)

// ISOFormat renders an instant with millisecond precision in UTC
const ISOFormat = "2006-01-02T15:04:05.000Z"

// UtilsProvider exposes the stateless utils.* methods
type UtilsProvider struct {
	now func() time.Time
}

// NewUtilsProvider creates a utils provider using the wall clock
func NewUtilsProvider() *UtilsProvider {
	return &UtilsProvider{now: time.Now}
}

// GetDefinitions returns the utils.* method definitions
func (p *UtilsProvider) GetDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        MethodBase64Encode,
			Description: "Encode UTF-8 text as standard base64",
			Required:    []string{"text"},
			InputSchema: objectSchema(map[string]interface{}{
				"text": stringProp("Text to encode"),
			}),
			Handler: p.handleEncode,
		},
		{
			Name:        MethodBase64Decode,
			Description: "Decode standard base64 into text",
			Required:    []string{"encoded"},
			InputSchema: objectSchema(map[string]interface{}{
				"encoded": stringProp("Base64 to decode, padded or unpadded"),
			}),
			Handler: p.handleDecode,
		},
		{
			Name:        MethodTimestamp,
			Description: "Current time in several renderings",
			InputSchema: objectSchema(map[string]interface{}{}),
			Handler:     p.handleTimestamp,
		},
	}
}

// EncodeBase64 encodes text with the padded standard alphabet
func EncodeBase64(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// DecodeBase64 accepts padded or unpadded standard base64
func DecodeBase64(encoded string) (string, error) {
	encoded = strings.TrimSpace(encoded)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return "", models.NewValidationError("encoded is not valid base64")
		}
	}
	return string(decoded), nil
}

func (p *UtilsProvider) handleEncode(ctx context.Context, params Params) (interface{}, error) {
	return map[string]string{"encoded": EncodeBase64(params.String("text"))}, nil
}

func (p *UtilsProvider) handleDecode(ctx context.Context, params Params) (interface{}, error) {
	text, err := DecodeBase64(params.String("encoded"))
	if err != nil {
		return nil, err
	}
	return map[string]string{"text": text}, nil
}

// Timestamp is one instant in three renderings
type Timestamp struct {
	Timestamp int64  `json:"timestamp"`
	ISO       string `json:"iso"`
	UTC       string `json:"utc"`
}

// NewTimestamp renders t truncated to milliseconds
func NewTimestamp(t time.Time) Timestamp {
	ms := t.UnixMilli()
	instant := time.UnixMilli(ms).UTC()
	return Timestamp{
		Timestamp: ms,
		ISO:       instant.Format(ISOFormat),
		UTC:       instant.Format(http.TimeFormat),
	}
}

func (p *UtilsProvider) handleTimestamp(ctx context.Context, params Params) (interface{}, error) {
	return NewTimestamp(p.now()), nil
}

// ServerInfo describes the running gateway
type ServerInfo struct {
	Name             string   `json:"name"`
	Version          string   `json:"version"`
	Description      string   `json:"description"`
	AuthEnabled      bool     `json:"authEnabled"`
	AvailableMethods []string `json:"availableMethods"`
}

// ServerInfoProvider exposes utils.serverInfo. The method list is read from
// the registry on every call.
type ServerInfoProvider struct {
	registry *Registry
	info     ServerInfo
}

// NewServerInfoProvider creates a provider describing registry
func NewServerInfoProvider(registry *Registry, info ServerInfo) *ServerInfoProvider {
	return &ServerInfoProvider{registry: registry, info: info}
}

// GetDefinitions returns the utils.serverInfo definition
func (p *ServerInfoProvider) GetDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        MethodServerInfo,
			Description: "Describe the gateway and its methods",
			InputSchema: objectSchema(map[string]interface{}{}),
			Handler:     p.handleServerInfo,
		},
	}
}

func (p *ServerInfoProvider) handleServerInfo(ctx context.Context, params Params) (interface{}, error) {
	info := p.info
	info.AvailableMethods = p.registry.Names()
	return info, nil
}
