package fusion

import "encoding/json"

// ContentBlock is one unit of a tool result, mirroring the MCP content block
// shapes (text / embedded resource) without importing the transport package —
// internal/mcp converts between the two at the edge.
type ContentBlock struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	Resource *EmbeddedResource `json:"resource,omitempty"`
}

// EmbeddedResource is a resource block embedded inline in a tool result.
// The state-sync decorator does not use it: it appends its cache-invalidation
// directives (spec.md §4.3) as a text block.
type EmbeddedResource struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Response is the full result of a dispatched tool call: one or more content
// blocks plus the structural isError flag spec.md §3 requires every handler
// result to carry.
type Response struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

// TextBlock builds a single-block success response from any JSON-marshalable
// payload, matching the teacher's JSONResult convention of serializing
// structured handler output into a single text block.
func TextBlock(payload any) Response {
	var text string
	switch v := payload.(type) {
	case string:
		text = v
	default:
		b, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return ErrorResponse(NewError(CodeHandlerError, "failed to marshal handler result: "+err.Error()))
		}
		text = string(b)
	}
	return Response{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// ErrorResponse renders a structured Error as the first (and only) text
// block of an isError=true response, the shape spec.md §7 calls out as the
// uniform error envelope every failure path funnels through.
func ErrorResponse(err *Error) Response {
	b, marshalErr := json.MarshalIndent(err, "", "  ")
	if marshalErr != nil {
		b = []byte(err.Error())
	}
	return Response{
		Content: []ContentBlock{{Type: "text", Text: string(b)}},
		IsError: true,
	}
}

// WithResource appends an embedded resource block to an existing response.
// No code outside its tests calls it.
func (r Response) WithResource(res EmbeddedResource) Response {
	r.Content = append(r.Content, ContentBlock{Type: "resource", Resource: &res})
	return r
}
