package template

import (
	"fmt"
	"regexp"

	"github.com/oliveagle/jsonpath"
	"github.com/stitchwork/stitch/model"
)

// The two recognized placeholder families. Anything else inside
// {{ ... }} passes through untouched.
var jsonBodyPattern = regexp.MustCompile(`\{\{\s*\$json\.body\.(\w+)\s*\}\}`)
var nodeResultPattern = regexp.MustCompile(`\{\{\s*\$node\.([\w-]+)\.(\w+)\s*\}\}`)

// Resolve substitutes {{ $json.body.<key> }} and
// {{ $node.<id>.<field> }} placeholders from the execution context.
// Total and side-effect free: a placeholder whose key is absent stays
// in the string verbatim.
func Resolve(template string, execCtx *model.ExecutionContext) string {
	if template == "" || execCtx == nil {
		return template
	}
	resolved := jsonBodyPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := jsonBodyPattern.FindStringSubmatch(match)[1]
		value, err := jsonpath.JsonPathLookup(map[string]any{"body": execCtx.TriggerBody()}, "$.body."+key)
		if err != nil || value == nil {
			return match
		}
		return fmt.Sprintf("%v", value)
	})
	resolved = nodeResultPattern.ReplaceAllStringFunc(resolved, func(match string) string {
		parts := nodeResultPattern.FindStringSubmatch(match)
		result, ok := execCtx.NodeResult(parts[1])
		if !ok {
			return match
		}
		value, ok := result.Fields()[parts[2]]
		if !ok || value == nil {
			return match
		}
		return fmt.Sprintf("%v", value)
	})
	return resolved
}
