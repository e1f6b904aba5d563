package splunkd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/systmms/ogsetup/pkg/store"
)

// feed is the Atom-style envelope splunkd wraps every listing in when
// output_mode=json.
type feed struct {
	Entry []entry `json:"entry"`
}

type entry struct {
	Name    string                 `json:"name"`
	Content map[string]interface{} `json:"content"`
}

type errorResponse struct {
	Messages []store.Message `json:"messages"`
}

type loginResponse struct {
	SessionKey string `json:"sessionKey"`
}

// ServerInfo describes the splunkd instance.
type ServerInfo struct {
	ServerName string
	Version    string
}

// properties converts entry content to string properties, dropping the
// eai:* access-control metadata splunkd adds to every stanza.
func properties(content map[string]interface{}) map[string]string {
	props := make(map[string]string, len(content))
	for k, v := range content {
		if strings.HasPrefix(k, "eai:") {
			continue
		}
		props[k] = stringify(v)
	}
	return props
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
