package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dogfacts/dogfacts/internal/errors"
)

// decode unmarshals tool arguments into T by round-tripping them through
// JSON. Arguments of the wrong type yield an UNPROCESSABLE error.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, errors.NewUnprocessable(fmt.Sprintf("invalid arguments: %v", err))
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, errors.NewUnprocessable(fmt.Sprintf("invalid arguments: %v", err))
	}
	return result, nil
}
