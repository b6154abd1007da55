package store

import (
	"strconv"
	"strings"
)

// ResolvePointer navigates an RFC 6901 JSON pointer ("/a/b/0/c") over a
// tree produced by json.Unmarshal into interface{} (so map[string]any
// and []any are the only container kinds it needs to handle). The
// empty pointer "" resolves to the whole tree, per the RFC.
func ResolvePointer(tree interface{}, pointer string) (interface{}, bool) {
	if pointer == "" {
		return tree, true
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, false
	}

	current := tree
	for _, token := range strings.Split(pointer[1:], "/") {
		token = unescapeToken(token)

		switch node := current.(type) {
		case map[string]interface{}:
			v, ok := node[token]
			if !ok {
				return nil, false
			}
			current = v
		case []interface{}:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// unescapeToken reverses RFC 6901's "~1" -> "/" and "~0" -> "~"
// escaping. Order matters: "~1" must be unescaped after "~0" is not
// yet applied to the result of the first substitution.
func unescapeToken(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	token = strings.ReplaceAll(token, "~0", "~")
	return token
}
